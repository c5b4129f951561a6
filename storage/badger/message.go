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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
// Messages are stored by ID with two secondary indexes: a per-conversation
// chronological index keyed by sent time, and a provider message id index
// used for inbound de-duplication and delivery callbacks.
type MessageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) (storage.MessageRepository, error) {
	idSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}

	return &MessageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MessageRepository) Close() error {
	return r.idSeq.Release()
}

// AddMessages adds one or more messages to storage.
func (r *MessageRepository) AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error) {
	for _, message := range messages {
		if err := core.ValidateMessage(message); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, message := range messages {
			if message.Id == 0 {
				id, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				message.Id = core.ID(id)
			}
			if message.SentAt.IsZero() {
				message.SentAt = now
			}
			if message.InsertedAt.IsZero() {
				message.InsertedAt = now
			}
			message.UpdatedAt = now

			if err := tx.Set(makeMessageKey(message.Id), storage.MarshalMessage(message)); err != nil {
				return err
			}
			indexKey := makeMessageConvKey(message.ConversationId, message.SentAt, message.Id)
			if err := tx.Set(indexKey, storage.MarshalID(message.Id)); err != nil {
				return err
			}
			if message.WhatsAppMessageId != "" {
				if err := tx.Set(makeMessageWAKey(message.WhatsAppMessageId), storage.MarshalID(message.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return messages, err
}

// GetMessage retrieves a single message by ID.
func (r *MessageRepository) GetMessage(ctx context.Context, id core.ID) (*core.Message, error) {
	var result *core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMessage(tx, id)
		return err
	}, false)
	return result, err
}

// UpdateMessageContent replaces the text content of a message. Used to
// persist audio transcriptions so re-deliveries of the same message skip
// the transcription call.
func (r *MessageRepository) UpdateMessageContent(ctx context.Context, id core.ID, content string) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		message, err := readMessage(tx, id)
		if err != nil {
			return err
		}
		message.Content = content
		message.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeMessageKey(id), storage.MarshalMessage(message)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// UpdateMessageStatus patches the delivery status of a message.
func (r *MessageRepository) UpdateMessageStatus(ctx context.Context, id core.ID, status core.DeliveryStatus) error {
	if err := core.ValidateDeliveryStatus(status); err != nil {
		return err
	}
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		message, err := readMessage(tx, id)
		if err != nil {
			return err
		}
		message.Status = status
		message.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeMessageKey(id), storage.MarshalMessage(message)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// FindMessageByWhatsAppID looks a message up by its provider-assigned id.
func (r *MessageRepository) FindMessageByWhatsAppID(ctx context.Context, whatsappID string) (*core.Message, error) {
	if whatsappID == "" {
		return nil, storage.ErrNotFound
	}

	var result *core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMessageWAKey(whatsappID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var messageID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			messageID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readMessage(tx, messageID)
		return err
	}, false)
	return result, err
}

// RecentMessages retrieves the last N messages of a conversation in
// chronological (oldest-to-newest) order. The chronological index is walked
// in reverse from the newest entry, then the collected page is flipped.
func (r *MessageRepository) RecentMessages(ctx context.Context, conversationID core.ID, limit int) ([]*core.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialMessageConvKey(conversationID)

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key of this conversation.
		seekKey := make([]byte, len(prefix)+16)
		copy(seekKey, prefix)
		for i := len(prefix); i < len(seekKey); i++ {
			seekKey[i] = 0xff
		}

		for iter.Seek(seekKey); iter.ValidForPrefix(prefix) && len(results) < limit; iter.Next() {
			var messageID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				messageID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			message, err := readMessage(tx, messageID)
			if err != nil {
				return err
			}
			results = append(results, message)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// CountMessages returns the number of messages in a conversation.
func (r *MessageRepository) CountMessages(ctx context.Context, conversationID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialMessageConvKey(conversationID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readMessage reads a message record inside a transaction.
func readMessage(tx *badger.Txn, id core.ID) (*core.Message, error) {
	item, err := tx.Get(makeMessageKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var message *core.Message
	err = item.Value(func(val []byte) error {
		var err error
		message, err = storage.UnmarshalMessage(val)
		return err
	})
	return message, err
}
