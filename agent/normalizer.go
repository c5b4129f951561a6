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


package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/brokerit/ai"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// Normalizer turns a stored message of any type into a text query.
//
// Text messages pass through. Audio is transcribed and the transcript is
// written back to the message record so history and re-deliveries see it.
// Images are described by the vision service, falling back to a placeholder
// when analysis fails so the pipeline keeps going. Document messages use
// their caption.
type Normalizer struct {
	messages    storage.MessageRepository
	transcriber ai.Transcriber
	vision      ai.VisionAnalyzer
	logger      *slog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(messages storage.MessageRepository, transcriber ai.Transcriber, vision ai.VisionAnalyzer) *Normalizer {
	return &Normalizer{
		messages:    messages,
		transcriber: transcriber,
		vision:      vision,
		logger:      slog.Default().With("component", "normalizer"),
	}
}

// Normalize returns the text query for a message.
func (n *Normalizer) Normalize(ctx context.Context, message *core.Message) (string, error) {
	switch message.Type {
	case core.MessageTypeText:
		if strings.TrimSpace(message.Content) == "" {
			return "", ErrNoContent
		}
		return message.Content, nil

	case core.MessageTypeAudio:
		return n.normalizeAudio(ctx, message)

	case core.MessageTypeImage:
		return n.normalizeImage(ctx, message)

	case core.MessageTypeDocument:
		// Caption doubles as the query; the attachment itself is not read.
		if strings.TrimSpace(message.Content) == "" {
			return "", ErrNoContent
		}
		return message.Content, nil
	}

	return "", fmt.Errorf("%w: %q", core.ErrInvalidMessageType, message.Type)
}

func (n *Normalizer) normalizeAudio(ctx context.Context, message *core.Message) (string, error) {
	// A previous attempt may already have persisted the transcript.
	if strings.TrimSpace(message.Content) != "" {
		return message.Content, nil
	}
	if message.MediaURL == "" {
		return "", ErrMissingMediaURL
	}

	transcript, err := n.transcriber.TranscribeAudio(ctx, message.MediaURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(transcript) == "" {
		return "", ErrNoContent
	}

	if err := n.messages.UpdateMessageContent(ctx, message.Id, transcript); err != nil {
		return "", err
	}
	message.Content = transcript

	n.logger.Debug("audio transcribed", "message_id", message.Id, "length", len(transcript))
	return transcript, nil
}

func (n *Normalizer) normalizeImage(ctx context.Context, message *core.Message) (string, error) {
	if message.MediaURL == "" {
		if strings.TrimSpace(message.Content) != "" {
			return message.Content, nil
		}
		return "", ErrMissingMediaURL
	}

	description, err := n.vision.AnalyzeImage(ctx, message.MediaURL, message.Content)
	if err != nil {
		// Vision failure degrades to a placeholder instead of dropping the
		// message; the client still gets a response.
		n.logger.Warn("image analysis failed, using placeholder", "message_id", message.Id, "err", err)
		description = fmt.Sprintf("Image received (analysis unavailable: %v)", err)
	}

	return strings.TrimSpace(message.Content + " [Image: " + description + "]"), nil
}
