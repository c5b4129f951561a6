// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used in Brokerit.
//
// This package defines interfaces for text embeddings, response generation,
// audio transcription and image analysis. The pipeline and ingestion code
// depend on these abstractions rather than on concrete implementations.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockResponder, etc.) return concrete types
// to enable behavior injection and call-count assertions.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(key))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "lakefront property with dock")
//	reply, err := provider.Responder().GenerateResponse(ctx, question, context)
package ai
