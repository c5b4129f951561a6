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


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/brokerit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Responder implements ai.Responder using OpenAI-compatible chat APIs.
type Responder struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// newResponder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newResponder(config *ai.Config) (*Responder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Responder{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-responder"),
	}, nil
}

// NewResponder creates a new responder using the provided configuration.
//
// Returns ai.Responder interface to enforce abstraction.
func NewResponder(config *ai.Config) (ai.Responder, error) {
	return newResponder(config)
}

// GenerateResponse produces a reply for the query using the given context
// block.
func (r *Responder) GenerateResponse(ctx context.Context, query, contextBlock string) (string, error) {
	r.logger.Debug("generating response", "query_length", len(query), "context_length", len(contextBlock))

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(responseSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf(responseUserPromptTemplate, contextBlock, query)),
			},
		},
	}

	response, err := r.client.GenerateContent(ctx, content,
		llms.WithTemperature(r.temperature),
		llms.WithMaxTokens(r.maxTokens),
	)
	if err != nil {
		r.logger.Error("failed to generate response", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		return "", ErrEmptyResponse
	}

	reply := strings.TrimSpace(response.Choices[0].Content)
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}
