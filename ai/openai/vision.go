package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/brokerit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// VisionAnalyzer implements ai.VisionAnalyzer using OpenAI-compatible
// multimodal chat APIs.
type VisionAnalyzer struct {
	client llms.Model
	logger *slog.Logger
}

// newVisionAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newVisionAnalyzer(config *ai.Config) (*VisionAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &VisionAnalyzer{
		client: client,
		logger: slog.Default().With("component", "openai-vision"),
	}, nil
}

// NewVisionAnalyzer creates a new vision analyzer using the provided
// configuration.
//
// Returns ai.VisionAnalyzer interface to enforce abstraction.
func NewVisionAnalyzer(config *ai.Config) (ai.VisionAnalyzer, error) {
	return newVisionAnalyzer(config)
}

// AnalyzeImage returns a textual description of the image at the given URL.
func (v *VisionAnalyzer) AnalyzeImage(ctx context.Context, imageURL, caption string) (string, error) {
	v.logger.Debug("analyzing image", "has_caption", caption != "")

	prompt := visionPrompt
	if caption != "" {
		prompt += "\n\nThe client sent this caption with the image: " + caption
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
				llms.ImageURLPart(imageURL),
			},
		},
	}

	response, err := v.client.GenerateContent(ctx, content)
	if err != nil {
		v.logger.Error("failed to analyze image", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		return "", ErrEmptyResponse
	}

	description := strings.TrimSpace(response.Choices[0].Content)
	if description == "" {
		return "", ErrEmptyResponse
	}
	return description, nil
}
