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
	"time"

	"github.com/poiesic/brokerit/ai"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
	"github.com/poiesic/brokerit/whatsapp"
)

const (
	// DefaultHistoryLimit is how many recent messages are fetched for
	// context assembly.
	DefaultHistoryLimit = 10

	// DefaultCallTimeout bounds each external AI or channel call.
	DefaultCallTimeout = 60 * time.Second
)

// Orchestrator runs the response pipeline for one inbound message:
// normalize, embed, retrieve, assemble context, generate, deliver, log.
//
// Failures carry their stage via StageError; the work queue records them and
// decides on retries. On failure nothing is sent to the client.
type Orchestrator struct {
	conversations storage.ConversationRepository
	messages      storage.MessageRepository
	interactions  storage.InteractionRepository

	normalizer *Normalizer
	retriever  *Retriever
	embedder   ai.Embedder
	responder  ai.Responder
	channel    whatsapp.Client

	historyLimit int
	callTimeout  time.Duration
	logger       *slog.Logger
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithHistoryLimit sets how many recent messages are fetched for context.
func WithHistoryLimit(limit int) Option {
	return func(o *Orchestrator) error {
		if limit < 1 {
			return fmt.Errorf("history limit must be positive")
		}
		o.historyLimit = limit
		return nil
	}
}

// WithCallTimeout bounds each external call made during a pipeline run.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout <= 0 {
			return fmt.Errorf("call timeout must be positive")
		}
		o.callTimeout = timeout
		return nil
	}
}

// NewOrchestrator creates an Orchestrator over the given repositories and
// services.
func NewOrchestrator(
	conversations storage.ConversationRepository,
	messages storage.MessageRepository,
	interactions storage.InteractionRepository,
	normalizer *Normalizer,
	retriever *Retriever,
	embedder ai.Embedder,
	responder ai.Responder,
	channel whatsapp.Client,
	opts ...Option,
) (*Orchestrator, error) {
	o := &Orchestrator{
		conversations: conversations,
		messages:      messages,
		interactions:  interactions,
		normalizer:    normalizer,
		retriever:     retriever,
		embedder:      embedder,
		responder:     responder,
		channel:       channel,
		historyLimit:  DefaultHistoryLimit,
		callTimeout:   DefaultCallTimeout,
		logger:        slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ProcessMessage runs the full pipeline for a stored inbound message.
func (o *Orchestrator) ProcessMessage(ctx context.Context, messageID core.ID) error {
	start := time.Now()

	message, err := o.messages.GetMessage(ctx, messageID)
	if err != nil {
		return stageErr(StageNormalize, messageID, err)
	}

	query, err := callBounded(ctx, o.callTimeout, func(callCtx context.Context) (string, error) {
		return o.normalizer.Normalize(callCtx, message)
	})
	if err != nil {
		return stageErr(StageNormalize, messageID, err)
	}

	vector, err := callBounded(ctx, o.callTimeout, func(callCtx context.Context) ([]float32, error) {
		return o.embedder.EmbedText(callCtx, query)
	})
	if err != nil {
		return stageErr(StageEmbed, messageID, err)
	}

	conversation, err := o.conversations.GetConversation(ctx, message.ConversationId)
	if err != nil {
		return stageErr(StageRetrieve, messageID, err)
	}

	matches, err := o.retriever.Retrieve(ctx, vector, message.BrokerId, conversation.PropertyId)
	if err != nil {
		return stageErr(StageRetrieve, messageID, err)
	}

	history, err := o.messages.RecentMessages(ctx, message.ConversationId, o.historyLimit)
	if err != nil {
		return stageErr(StageRetrieve, messageID, err)
	}

	contextBlock := BuildContext(history, matches)

	reply, err := callBounded(ctx, o.callTimeout, func(callCtx context.Context) (string, error) {
		return o.responder.GenerateResponse(callCtx, query, contextBlock)
	})
	if err != nil {
		return stageErr(StageGenerate, messageID, err)
	}

	if err := o.deliver(ctx, conversation, message, reply); err != nil {
		return stageErr(StageDeliver, messageID, err)
	}

	if err := o.logInteraction(ctx, message, query, matches, reply, time.Since(start)); err != nil {
		return stageErr(StageLog, messageID, err)
	}

	o.logger.Info("message processed",
		"message_id", messageID,
		"conversation_id", message.ConversationId,
		"documents", len(matches),
		"duration", time.Since(start),
	)
	return nil
}

// deliver sends the reply over the channel, records the outbound message
// and advances the conversation's activity timestamp.
func (o *Orchestrator) deliver(ctx context.Context, conversation *core.Conversation, inbound *core.Message, reply string) error {
	providerID, err := callBounded(ctx, o.callTimeout, func(callCtx context.Context) (string, error) {
		return o.channel.SendText(callCtx, conversation.ClientPhone, reply)
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	outbound := &core.Message{
		ConversationId:    conversation.Id,
		BrokerId:          inbound.BrokerId,
		Direction:         core.DirectionOutbound,
		Type:              core.MessageTypeText,
		Content:           reply,
		WhatsAppMessageId: providerID,
		Status:            core.DeliverySent,
		IsFromAgent:       true,
		SentAt:            now,
	}
	if _, err := o.messages.AddMessages(ctx, outbound); err != nil {
		return err
	}

	return o.conversations.TouchConversation(ctx, conversation.Id, now)
}

// logInteraction appends the audit record for a completed run.
func (o *Orchestrator) logInteraction(ctx context.Context, message *core.Message, query string, matches []*core.DocumentMatch, reply string, elapsed time.Duration) error {
	documentIDs := make([]core.ID, len(matches))
	for i, match := range matches {
		documentIDs[i] = match.Document.Id
	}

	_, err := o.interactions.AddInteractions(ctx, &core.InteractionLog{
		ConversationId:     message.ConversationId,
		MessageId:          message.Id,
		Query:              query,
		RetrievedDocuments: documentIDs,
		Response:           reply,
		Confidence:         ConfidenceFor(len(matches)),
		ProcessingTime:     elapsed,
	})
	return err
}

// callBounded runs fn under the given per-call timeout.
func callBounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}
