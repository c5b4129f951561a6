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


package core

import (
	"fmt"
	"time"
)

// ValidateBroker validates a Broker according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//
// NOT validated:
//   - ID (0 is valid from database sequences)
//   - WhatsAppNumber (optional; brokers without one rely on default routing)
func ValidateBroker(broker *Broker) error {
	if broker == nil {
		return fmt.Errorf("%w: broker is nil", ErrInvalidBroker)
	}

	if broker.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBroker, ErrEmptyBrokerName)
	}

	return nil
}

// ValidateConversation validates a Conversation according to domain rules.
//
// Validation rules:
//   - BrokerId must be set
//   - ClientPhone must not be empty
//   - Status must be a recognized lifecycle state
func ValidateConversation(conversation *Conversation) error {
	if conversation == nil {
		return fmt.Errorf("%w: conversation is nil", ErrInvalidConversation)
	}

	if conversation.BrokerId == 0 {
		return fmt.Errorf("%w: broker id is required", ErrInvalidConversation)
	}

	if conversation.ClientPhone == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, ErrEmptyClientPhone)
	}

	if err := ValidateConversationStatus(conversation.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, err)
	}

	return nil
}

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - ConversationId must be set
//   - Direction, Type and Status must be recognized values
//   - SentAt must not be in the future
//
// NOT validated:
//   - Content (audio and image messages may arrive with no caption)
//   - ID (0 is valid from database sequences)
func ValidateMessage(message *Message) error {
	if message == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if message.ConversationId == 0 {
		return fmt.Errorf("%w: conversation id is required", ErrInvalidMessage)
	}

	if err := ValidateDirection(message.Direction); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if err := ValidateMessageType(message.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if err := ValidateDeliveryStatus(message.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if !IsValidTimestamp(message.SentAt) {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateDocument validates a KnowledgeDocument according to domain rules.
//
// Validation rules:
//   - BrokerId must be set
//   - Title and Content must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (empty until the embedding processor runs)
func ValidateDocument(document *KnowledgeDocument) error {
	if document == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if document.BrokerId == 0 {
		return fmt.Errorf("%w: broker id is required", ErrInvalidDocument)
	}

	if document.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentTitle)
	}

	if document.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentContent)
	}

	return nil
}

// ValidateConversationStatus validates that a ConversationStatus has a valid value.
func ValidateConversationStatus(status ConversationStatus) error {
	switch status {
	case ConversationActive, ConversationClosed, ConversationPending:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidConversationStatus, status)
}

// ValidateDirection validates that a MessageDirection has a valid value.
func ValidateDirection(direction MessageDirection) error {
	switch direction {
	case DirectionInbound, DirectionOutbound:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
}

// ValidateMessageType validates that a MessageType has a valid value.
func ValidateMessageType(messageType MessageType) error {
	switch messageType {
	case MessageTypeText, MessageTypeAudio, MessageTypeImage, MessageTypeDocument:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMessageType, messageType)
}

// ValidateDeliveryStatus validates that a DeliveryStatus has a valid value.
func ValidateDeliveryStatus(status DeliveryStatus) error {
	switch status {
	case DeliverySent, DeliveryDelivered, DeliveryRead, DeliveryFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDeliveryStatus, status)
}

// ValidateQueueStatus validates that a QueueStatus has a valid value.
func ValidateQueueStatus(status QueueStatus) error {
	switch status {
	case QueuePending, QueueProcessing, QueueCompleted, QueueFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidQueueStatus, status)
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
