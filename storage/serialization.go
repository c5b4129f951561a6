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


package storage

import (
	"github.com/poiesic/brokerit/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalBroker serializes a Broker to bytes.
func MarshalBroker(broker *core.Broker) []byte {
	buf := make([]byte, core.BrokerMUS.Size(*broker))
	core.BrokerMUS.Marshal(*broker, buf)
	return buf
}

// UnmarshalBroker deserializes a Broker from bytes.
func UnmarshalBroker(data []byte) (*core.Broker, error) {
	broker, _, err := core.BrokerMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &broker, nil
}

// MarshalProperty serializes a Property to bytes.
func MarshalProperty(property *core.Property) []byte {
	buf := make([]byte, core.PropertyMUS.Size(*property))
	core.PropertyMUS.Marshal(*property, buf)
	return buf
}

// UnmarshalProperty deserializes a Property from bytes.
func UnmarshalProperty(data []byte) (*core.Property, error) {
	property, _, err := core.PropertyMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// MarshalConversation serializes a Conversation to bytes.
func MarshalConversation(conversation *core.Conversation) []byte {
	buf := make([]byte, core.ConversationMUS.Size(*conversation))
	core.ConversationMUS.Marshal(*conversation, buf)
	return buf
}

// UnmarshalConversation deserializes a Conversation from bytes.
func UnmarshalConversation(data []byte) (*core.Conversation, error) {
	conversation, _, err := core.ConversationMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(message *core.Message) []byte {
	buf := make([]byte, core.MessageMUS.Size(*message))
	core.MessageMUS.Marshal(*message, buf)
	return buf
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	message, _, err := core.MessageMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// MarshalDocument serializes a KnowledgeDocument to bytes.
func MarshalDocument(document *core.KnowledgeDocument) []byte {
	buf := make([]byte, core.KnowledgeDocumentMUS.Size(*document))
	core.KnowledgeDocumentMUS.Marshal(*document, buf)
	return buf
}

// UnmarshalDocument deserializes a KnowledgeDocument from bytes.
func UnmarshalDocument(data []byte) (*core.KnowledgeDocument, error) {
	document, _, err := core.KnowledgeDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// MarshalQueueEntry serializes a QueueEntry to bytes.
func MarshalQueueEntry(entry *core.QueueEntry) []byte {
	buf := make([]byte, core.QueueEntryMUS.Size(*entry))
	core.QueueEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalQueueEntry deserializes a QueueEntry from bytes.
func UnmarshalQueueEntry(data []byte) (*core.QueueEntry, error) {
	entry, _, err := core.QueueEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalInteraction serializes an InteractionLog to bytes.
func MarshalInteraction(interaction *core.InteractionLog) []byte {
	buf := make([]byte, core.InteractionLogMUS.Size(*interaction))
	core.InteractionLogMUS.Marshal(*interaction, buf)
	return buf
}

// UnmarshalInteraction deserializes an InteractionLog from bytes.
func UnmarshalInteraction(data []byte) (*core.InteractionLog, error) {
	interaction, _, err := core.InteractionLogMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}
