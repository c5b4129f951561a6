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

// PropertyRepository implements storage.PropertyRepository for BadgerDB.
type PropertyRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.PropertyRepository = (*PropertyRepository)(nil)

// NewPropertyRepository creates a new PropertyRepository.
func NewPropertyRepository(backend *Backend) (storage.PropertyRepository, error) {
	idSeq, err := backend.GetSequence(propertyIDSeq)
	if err != nil {
		return nil, err
	}

	return &PropertyRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *PropertyRepository) Close() error {
	return r.idSeq.Release()
}

// AddProperties adds one or more properties to storage.
func (r *PropertyRepository) AddProperties(ctx context.Context, properties ...*core.Property) ([]*core.Property, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, property := range properties {
			if property.Id == 0 {
				id, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				property.Id = core.ID(id)
			}
			if property.CreatedAt.IsZero() {
				property.CreatedAt = now
			}
			property.UpdatedAt = now

			if err := tx.Set(makePropertyKey(property.Id), storage.MarshalProperty(property)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return properties, err
}

// GetProperty retrieves a single property by ID.
func (r *PropertyRepository) GetProperty(ctx context.Context, id core.ID) (*core.Property, error) {
	var result *core.Property
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePropertyKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalProperty(val)
			return err
		})
	}, false)
	return result, err
}

// ListProperties retrieves all properties for a broker.
func (r *PropertyRepository) ListProperties(ctx context.Context, brokerID core.ID) ([]*core.Property, error) {
	var results []*core.Property
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(propertyPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var property *core.Property
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				property, err = storage.UnmarshalProperty(val)
				return err
			}); err != nil {
				return err
			}
			if property != nil && property.BrokerId == brokerID {
				results = append(results, property)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Id < results[j].Id
	})
	return results, nil
}
