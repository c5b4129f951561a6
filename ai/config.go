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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL for the OpenAI-compatible API.
	// Example: "https://api.openai.com/v1"
	Host string

	// APIKey authenticates requests against the API.
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-ada-002"
	EmbeddingModel string

	// ChatModel is the model identifier to use for response generation.
	// Example: "gpt-4"
	ChatModel string

	// VisionModel is the model identifier to use for image analysis.
	// Example: "gpt-4o"
	VisionModel string

	// TranscriptionModel is the model identifier to use for audio
	// transcription. Example: "whisper-1"
	TranscriptionModel string

	// Temperature controls response sampling randomness. Default: 0.7
	Temperature float64

	// MaxTokens caps the length of generated responses. Default: 500
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithVisionModel sets the vision model identifier.
func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithTranscriptionModel sets the transcription model identifier.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithTemperature sets the response sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithMaxTokens sets the response length cap.
func WithMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// DefaultConfig returns a Config with defaults for the OpenAI API.
// The APIKey is intentionally left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Host:               "https://api.openai.com/v1",
		EmbeddingModel:     "text-embedding-ada-002",
		ChatModel:          "gpt-4",
		VisionModel:        "gpt-4o",
		TranscriptionModel: "whisper-1",
		Temperature:        0.7,
		MaxTokens:          500,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(key),
//	    ai.WithChatModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if c.TranscriptionModel == "" {
		return errors.New("ai config: TranscriptionModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
