package badger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// BrokerRepository implements storage.BrokerRepository for BadgerDB.
type BrokerRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.BrokerRepository = (*BrokerRepository)(nil)

// NewBrokerRepository creates a new BrokerRepository.
func NewBrokerRepository(backend *Backend) (storage.BrokerRepository, error) {
	idSeq, err := backend.GetSequence(brokerIDSeq)
	if err != nil {
		return nil, err
	}

	return &BrokerRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *BrokerRepository) Close() error {
	return r.idSeq.Release()
}

// AddBrokers adds one or more brokers to storage.
func (r *BrokerRepository) AddBrokers(ctx context.Context, brokers ...*core.Broker) ([]*core.Broker, error) {
	for _, broker := range brokers {
		if err := core.ValidateBroker(broker); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, broker := range brokers {
			if broker.Id == 0 {
				id, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				broker.Id = core.ID(id)
			}
			if broker.CreatedAt.IsZero() {
				broker.CreatedAt = time.Now().UTC()
			}

			if err := tx.Set(makeBrokerKey(broker.Id), storage.MarshalBroker(broker)); err != nil {
				return err
			}

			// Routing index keyed by digits-only number
			if number := digitsOnly(broker.WhatsAppNumber); number != "" {
				if err := tx.Set(makeBrokerNumberKey(number), storage.MarshalID(broker.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return brokers, err
}

// GetBroker retrieves a single broker by ID.
func (r *BrokerRepository) GetBroker(ctx context.Context, id core.ID) (*core.Broker, error) {
	var result *core.Broker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		broker, err := readBroker(tx, makeBrokerKey(id))
		if err != nil {
			return err
		}
		if broker == nil {
			return storage.ErrNotFound
		}
		result = broker
		return nil
	}, false)
	return result, err
}

// ListBrokers retrieves all brokers, optionally restricted to active ones.
func (r *BrokerRepository) ListBrokers(ctx context.Context, activeOnly bool) ([]*core.Broker, error) {
	var results []*core.Broker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(brokerPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var broker *core.Broker
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				broker, err = storage.UnmarshalBroker(val)
				return err
			}); err != nil {
				return err
			}
			if broker == nil {
				continue
			}
			if activeOnly && !broker.Active {
				continue
			}
			results = append(results, broker)
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

// FindBrokerByWhatsAppNumber resolves a business WhatsApp number to its broker.
func (r *BrokerRepository) FindBrokerByWhatsAppNumber(ctx context.Context, number string) (*core.Broker, error) {
	normalized := digitsOnly(number)
	if normalized == "" {
		return nil, storage.ErrNotFound
	}

	var result *core.Broker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBrokerNumberKey(normalized))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var brokerID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			brokerID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		broker, err := readBroker(tx, makeBrokerKey(brokerID))
		if err != nil {
			return err
		}
		if broker == nil {
			return storage.ErrNotFound
		}
		result = broker
		return nil
	}, false)
	return result, err
}

// FirstActiveBroker returns the lowest-ID active broker.
func (r *BrokerRepository) FirstActiveBroker(ctx context.Context) (*core.Broker, error) {
	brokers, err := r.ListBrokers(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(brokers) == 0 {
		return nil, storage.ErrNotFound
	}
	return brokers[0], nil
}

// readBroker reads a broker record, returning nil when the key is absent.
func readBroker(tx *badger.Txn, key []byte) (*core.Broker, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var broker *core.Broker
	err = item.Value(func(val []byte) error {
		var err error
		broker, err = storage.UnmarshalBroker(val)
		return err
	})
	return broker, err
}

// digitsOnly strips everything but decimal digits from a phone number.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
