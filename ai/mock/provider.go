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


package mock

import "github.com/poiesic/brokerit/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock service instances.
type MockProvider struct {
	embedder    *MockEmbedder
	responder   *MockResponder
	transcriber *MockTranscriber
	vision      *MockVisionAnalyzer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production
// constructors. Use the GetMock* accessors for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:    NewMockEmbedder(),
		responder:   NewMockResponder(),
		transcriber: NewMockTranscriber(),
		vision:      NewMockVisionAnalyzer(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Responder returns the mock responder.
func (p *MockProvider) Responder() ai.Responder {
	return p.responder
}

// Transcriber returns the mock transcriber.
func (p *MockProvider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// VisionAnalyzer returns the mock vision analyzer.
func (p *MockProvider) VisionAnalyzer() ai.VisionAnalyzer {
	return p.vision
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockResponder returns the underlying mock responder for test assertions.
func (p *MockProvider) GetMockResponder() *MockResponder {
	return p.responder
}

// GetMockTranscriber returns the underlying mock transcriber for test
// assertions.
func (p *MockProvider) GetMockTranscriber() *MockTranscriber {
	return p.transcriber
}

// GetMockVisionAnalyzer returns the underlying mock vision analyzer for test
// assertions.
func (p *MockProvider) GetMockVisionAnalyzer() *MockVisionAnalyzer {
	return p.vision
}
