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
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// ConversationRepository implements storage.ConversationRepository for
// BadgerDB. Uniqueness of the active conversation per (broker, client phone)
// pair is enforced through a dedicated index key written in the same
// transaction as the conversation record.
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (storage.ConversationRepository, error) {
	idSeq, err := backend.GetSequence(conversationIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// GetOrCreateConversation returns the active conversation for the
// (broker, client phone) pair, creating one if none exists. The lookup and
// the create happen in one transaction; concurrent callers racing on the
// same pair conflict on the uniqueness key and one of them retries into the
// read path, so both observe the same conversation.
func (r *ConversationRepository) GetOrCreateConversation(ctx context.Context, brokerID core.ID, clientPhone string) (*core.Conversation, error) {
	if clientPhone == "" {
		return nil, core.ErrEmptyClientPhone
	}

	activeKey := makeActiveConversationKey(brokerID, clientPhone)

	var result *core.Conversation
	err := r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(activeKey)
		if err == nil {
			var convID core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				convID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			result, err = readConversation(tx, convID)
			return err
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		conversation := &core.Conversation{
			Id:            core.ID(id),
			BrokerId:      brokerID,
			ClientPhone:   clientPhone,
			Status:        core.ConversationActive,
			LastMessageAt: now,
			CreatedAt:     now,
		}
		if err := core.ValidateConversation(conversation); err != nil {
			return err
		}

		if err := tx.Set(makeConversationKey(conversation.Id), storage.MarshalConversation(conversation)); err != nil {
			return err
		}
		if err := tx.Set(activeKey, storage.MarshalID(conversation.Id)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		result = conversation
		return nil
	})
	return result, err
}

// GetConversation retrieves a single conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	var result *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readConversation(tx, id)
		return err
	}, false)
	return result, err
}

// ListConversations retrieves all conversations for a broker, most recently
// active first.
func (r *ConversationRepository) ListConversations(ctx context.Context, brokerID core.ID) ([]*core.Conversation, error) {
	var results []*core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(conversationPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var conversation *core.Conversation
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				conversation, err = storage.UnmarshalConversation(val)
				return err
			}); err != nil {
				return err
			}
			if conversation != nil && conversation.BrokerId == brokerID {
				results = append(results, conversation)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].LastMessageAt.Equal(results[j].LastMessageAt) {
			return results[i].Id > results[j].Id
		}
		return results[i].LastMessageAt.After(results[j].LastMessageAt)
	})
	return results, nil
}

// TouchConversation advances LastMessageAt to the given time. Older
// timestamps are ignored so concurrent completions never move the value
// backwards.
func (r *ConversationRepository) TouchConversation(ctx context.Context, id core.ID, at time.Time) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		conversation, err := readConversation(tx, id)
		if err != nil {
			return err
		}
		if !at.After(conversation.LastMessageAt) {
			return nil
		}
		conversation.LastMessageAt = at
		if err := tx.Set(makeConversationKey(id), storage.MarshalConversation(conversation)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// CloseConversation transitions a conversation out of the active state and
// releases the uniqueness slot, allowing a new active conversation for the
// same (broker, client phone) pair.
func (r *ConversationRepository) CloseConversation(ctx context.Context, id core.ID) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		conversation, err := readConversation(tx, id)
		if err != nil {
			return err
		}
		if conversation.Status == core.ConversationClosed {
			return nil
		}
		conversation.Status = core.ConversationClosed
		if err := tx.Set(makeConversationKey(id), storage.MarshalConversation(conversation)); err != nil {
			return err
		}
		if err := tx.Delete(makeActiveConversationKey(conversation.BrokerId, conversation.ClientPhone)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// DeleteConversation removes a conversation. Messages reference their
// conversation by ID, so deletion is refused while any remain.
func (r *ConversationRepository) DeleteConversation(ctx context.Context, id core.ID) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		conversation, err := readConversation(tx, id)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialMessageConvKey(id)
		iter := tx.NewIterator(opts)
		iter.Rewind()
		hasMessages := iter.Valid()
		iter.Close()
		if hasMessages {
			return storage.ErrConversationNotEmpty
		}

		if err := tx.Delete(makeConversationKey(id)); err != nil {
			return err
		}
		if conversation.Status == core.ConversationActive {
			if err := tx.Delete(makeActiveConversationKey(conversation.BrokerId, conversation.ClientPhone)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// readConversation reads a conversation record inside a transaction.
func readConversation(tx *badger.Txn, id core.ID) (*core.Conversation, error) {
	item, err := tx.Get(makeConversationKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var conversation *core.Conversation
	err = item.Value(func(val []byte) error {
		var err error
		conversation, err = storage.UnmarshalConversation(val)
		return err
	})
	return conversation, err
}
