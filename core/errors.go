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

import "errors"

// Domain validation errors
var (
	// ErrInvalidBroker indicates a Broker failed validation.
	ErrInvalidBroker = errors.New("invalid broker")

	// ErrInvalidConversation indicates a Conversation failed validation.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidDocument indicates a KnowledgeDocument failed validation.
	ErrInvalidDocument = errors.New("invalid knowledge document")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyClientPhone indicates the ClientPhone field is empty.
	ErrEmptyClientPhone = errors.New("client phone cannot be empty")

	// ErrEmptyBrokerName indicates the broker Name field is empty.
	ErrEmptyBrokerName = errors.New("broker name cannot be empty")

	// ErrEmptyDocumentTitle indicates the document Title field is empty.
	ErrEmptyDocumentTitle = errors.New("document title cannot be empty")

	// ErrEmptyDocumentContent indicates the document Content field is empty.
	ErrEmptyDocumentContent = errors.New("document content cannot be empty")

	// ErrInvalidMessageType indicates an unrecognized MessageType value.
	ErrInvalidMessageType = errors.New("invalid message type")

	// ErrInvalidDirection indicates an unrecognized MessageDirection value.
	ErrInvalidDirection = errors.New("invalid message direction")

	// ErrInvalidDeliveryStatus indicates an unrecognized DeliveryStatus value.
	ErrInvalidDeliveryStatus = errors.New("invalid delivery status")

	// ErrInvalidQueueStatus indicates an unrecognized QueueStatus value.
	ErrInvalidQueueStatus = errors.New("invalid queue status")

	// ErrInvalidConversationStatus indicates an unrecognized ConversationStatus value.
	ErrInvalidConversationStatus = errors.New("invalid conversation status")
)
