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
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// QueueRepository implements storage.QueueRepository for BadgerDB.
// Claims run inside a conflict-retried transaction: two workers racing on
// the same entry serialize on its key, and the loser retries onto the next
// pending entry.
type QueueRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(backend *Backend) (storage.QueueRepository, error) {
	idSeq, err := backend.GetSequence(queueIDSeq)
	if err != nil {
		return nil, err
	}

	return &QueueRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *QueueRepository) Close() error {
	return r.idSeq.Release()
}

// EnqueueEntry adds a new entry in the pending state.
func (r *QueueRepository) EnqueueEntry(ctx context.Context, entry *core.QueueEntry) (*core.QueueEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if entry.Id == 0 {
			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			entry.Id = core.ID(id)
		}
		entry.Status = core.QueuePending
		if entry.EnqueuedAt.IsZero() {
			entry.EnqueuedAt = time.Now().UTC()
		}

		if err := tx.Set(makeQueueKey(entry.Id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return entry, err
}

// ClaimNextPending atomically transitions the oldest pending entry to
// processing and returns it. Returns (nil, nil) when nothing is pending.
func (r *QueueRepository) ClaimNextPending(ctx context.Context) (*core.QueueEntry, error) {
	var claimed *core.QueueEntry
	err := r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		claimed = nil

		oldest, err := scanQueue(tx, func(entry *core.QueueEntry) bool {
			return entry.Status == core.QueuePending
		})
		if err != nil {
			return err
		}
		if oldest == nil {
			return nil
		}

		oldest.Status = core.QueueProcessing
		oldest.StartedAt = time.Now().UTC()
		if err := tx.Set(makeQueueKey(oldest.Id), storage.MarshalQueueEntry(oldest)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		claimed = oldest
		return nil
	})
	return claimed, err
}

// CompleteEntry marks a processing entry completed.
func (r *QueueRepository) CompleteEntry(ctx context.Context, id core.ID) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, id)
		if err != nil {
			return err
		}
		if entry.Status != core.QueueProcessing {
			return fmt.Errorf("%w: %s -> %s", storage.ErrInvalidQueueTransition, entry.Status, core.QueueCompleted)
		}
		entry.Status = core.QueueCompleted
		entry.CompletedAt = time.Now().UTC()
		if err := tx.Set(makeQueueKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// FailEntry marks an entry failed, records the error detail and increments
// the retry count.
func (r *QueueRepository) FailEntry(ctx context.Context, id core.ID, errMsg string) (*core.QueueEntry, error) {
	var updated *core.QueueEntry
	err := r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, id)
		if err != nil {
			return err
		}
		entry.Status = core.QueueFailed
		entry.ErrorMessage = errMsg
		entry.RetryCount++
		entry.CompletedAt = time.Now().UTC()
		if err := tx.Set(makeQueueKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	return updated, err
}

// RequeueEntry moves a failed entry back to pending for another attempt.
func (r *QueueRepository) RequeueEntry(ctx context.Context, id core.ID) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, id)
		if err != nil {
			return err
		}
		if entry.Status != core.QueueFailed {
			return fmt.Errorf("%w: %s -> %s", storage.ErrInvalidQueueTransition, entry.Status, core.QueuePending)
		}
		entry.Status = core.QueuePending
		entry.StartedAt = time.Time{}
		entry.CompletedAt = time.Time{}
		if err := tx.Set(makeQueueKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// RequeueStale moves entries stuck in processing since before the given
// deadline back to pending. A crashed worker never completes its claim, so
// the reconciler calls this periodically.
func (r *QueueRepository) RequeueStale(ctx context.Context, deadline time.Time) (int, error) {
	count := 0
	err := r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		count = 0

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queuePrefix + ":")
		iter := tx.NewIterator(opts)

		var stale []*core.QueueEntry
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.QueueEntry
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalQueueEntry(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			if entry.Status == core.QueueProcessing && entry.StartedAt.Before(deadline) {
				stale = append(stale, entry)
			}
		}
		iter.Close()

		for _, entry := range stale {
			entry.Status = core.QueuePending
			entry.StartedAt = time.Time{}
			if err := tx.Set(makeQueueKey(entry.Id), storage.MarshalQueueEntry(entry)); err != nil {
				return err
			}
			count++
		}
		if count == 0 {
			return nil
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetEntry retrieves a single entry by ID.
func (r *QueueRepository) GetEntry(ctx context.Context, id core.ID) (*core.QueueEntry, error) {
	var result *core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readQueueEntry(tx, id)
		return err
	}, false)
	return result, err
}

// scanQueue walks every queue record and returns the entry matching the
// predicate with the smallest (EnqueuedAt, Id), or nil when none match.
func scanQueue(tx *badger.Txn, match func(*core.QueueEntry) bool) (*core.QueueEntry, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(queuePrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var oldest *core.QueueEntry
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var entry *core.QueueEntry
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			entry, err = storage.UnmarshalQueueEntry(val)
			return err
		}); err != nil {
			return nil, err
		}
		if entry == nil || !match(entry) {
			continue
		}
		if oldest == nil ||
			entry.EnqueuedAt.Before(oldest.EnqueuedAt) ||
			(entry.EnqueuedAt.Equal(oldest.EnqueuedAt) && entry.Id < oldest.Id) {
			oldest = entry
		}
	}
	return oldest, nil
}

// readQueueEntry reads a queue record inside a transaction.
func readQueueEntry(tx *badger.Txn, id core.ID) (*core.QueueEntry, error) {
	item, err := tx.Get(makeQueueKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var entry *core.QueueEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalQueueEntry(val)
		return err
	})
	return entry, err
}
