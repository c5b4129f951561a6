package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// InteractionRepository implements storage.InteractionRepository for
// BadgerDB. Records are append-only; nothing in the pipeline updates or
// deletes them.
type InteractionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.InteractionRepository = (*InteractionRepository)(nil)

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(backend *Backend) (storage.InteractionRepository, error) {
	idSeq, err := backend.GetSequence(interactionIDSeq)
	if err != nil {
		return nil, err
	}

	return &InteractionRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *InteractionRepository) Close() error {
	return r.idSeq.Release()
}

// AddInteractions appends one or more interaction log records.
func (r *InteractionRepository) AddInteractions(ctx context.Context, interactions ...*core.InteractionLog) ([]*core.InteractionLog, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, interaction := range interactions {
			if interaction.Id == 0 {
				id, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				interaction.Id = core.ID(id)
			}
			if interaction.CreatedAt.IsZero() {
				interaction.CreatedAt = now
			}

			if err := tx.Set(makeInteractionKey(interaction.Id), storage.MarshalInteraction(interaction)); err != nil {
				return err
			}
			indexKey := makeInteractionConvKey(interaction.ConversationId, interaction.Id)
			if err := tx.Set(indexKey, storage.MarshalID(interaction.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return interactions, err
}

// ListInteractions retrieves all interaction records for a conversation in
// insertion order. The index key embeds the interaction ID big-endian, so
// plain prefix iteration already yields that order.
func (r *InteractionRepository) ListInteractions(ctx context.Context, conversationID core.ID) ([]*core.InteractionLog, error) {
	var results []*core.InteractionLog
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialInteractionConvKey(conversationID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var interactionID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				interactionID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := tx.Get(makeInteractionKey(interactionID))
			if err != nil {
				return err
			}
			var interaction *core.InteractionLog
			if err := item.Value(func(val []byte) error {
				var err error
				interaction, err = storage.UnmarshalInteraction(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, interaction)
		}
		return nil
	}, false)
	return results, err
}
