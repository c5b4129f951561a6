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

package gateway

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
	"github.com/poiesic/brokerit/whatsapp"
)

// handleWebhook terminates Evolution API webhook calls. Events other than
// message upserts and status updates are acknowledged and dropped so the
// provider does not retry them.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	envelope, err := whatsapp.ParseEnvelope(body)
	if err != nil {
		s.logger.Warn("malformed webhook payload", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch envelope.Event {
	case whatsapp.EventMessagesUpsert:
		s.handleUpsert(c, envelope)
	case whatsapp.EventMessagesUpdate:
		s.handleStatusUpdate(c, envelope)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) handleUpsert(c *gin.Context, envelope *whatsapp.Envelope) {
	ctx := c.Request.Context()

	inbound, err := whatsapp.ParseInbound(envelope)
	if err != nil {
		s.logger.Warn("malformed upsert payload", "instance", envelope.Instance, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Echoes of our own outbound messages come back as upserts too
	if inbound.FromMe {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	// Providers re-deliver webhooks; the provider message id de-dups them
	if _, err := s.messages.FindMessageByWhatsAppID(ctx, inbound.ProviderMessageID); err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "duplicate": true})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	broker, err := s.routeBroker(c, envelope.Instance)
	if err != nil {
		s.logger.Error("error routing inbound message", "instance", envelope.Instance, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conversation, err := s.conversations.GetOrCreateConversation(ctx, broker.Id, inbound.ClientPhone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	message := &core.Message{
		ConversationId:    conversation.Id,
		BrokerId:          broker.Id,
		Direction:         core.DirectionInbound,
		Type:              inbound.Type,
		Content:           inbound.Content,
		MediaURL:          inbound.MediaURL,
		WhatsAppMessageId: inbound.ProviderMessageID,
		Status:            core.DeliveryDelivered,
		SentAt:            now,
	}
	added, err := s.messages.AddMessages(ctx, message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.conversations.TouchConversation(ctx, conversation.Id, now); err != nil {
		s.logger.Error("error touching conversation", "conversation_id", conversation.Id, "err", err)
	}

	if _, err := s.queue.EnqueueEntry(ctx, &core.QueueEntry{
		MessageId:      added[0].Id,
		ConversationId: conversation.Id,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("inbound message accepted",
		"message_id", added[0].Id,
		"conversation_id", conversation.Id,
		"broker_id", broker.Id,
		"type", message.Type)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleStatusUpdate(c *gin.Context, envelope *whatsapp.Envelope) {
	ctx := c.Request.Context()

	update, err := whatsapp.ParseStatusUpdate(envelope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message, err := s.messages.FindMessageByWhatsAppID(ctx, update.ProviderMessageID)
	if errors.Is(err, storage.ErrNotFound) {
		// Status for a message we never stored; nothing to patch
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.messages.UpdateMessageStatus(ctx, message.Id, update.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// routeBroker resolves the receiving instance to a broker. Instances are
// named after the business WhatsApp number; when that lookup misses, the
// first active broker serves as the default tenant.
func (s *Server) routeBroker(c *gin.Context, instance string) (*core.Broker, error) {
	ctx := c.Request.Context()

	broker, err := s.brokers.FindBrokerByWhatsAppNumber(ctx, instance)
	if err == nil {
		return broker, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	broker, err = s.brokers.FirstActiveBroker(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoActiveBroker
	}
	if err != nil {
		return nil, err
	}
	return broker, nil
}
