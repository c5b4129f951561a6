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
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
// Document IDs are derived from content, so re-uploading identical content
// overwrites the existing record instead of duplicating it.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; document IDs are content-based and need no sequence.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocuments adds one or more knowledge documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, documents ...*core.KnowledgeDocument) ([]*core.KnowledgeDocument, error) {
	for _, document := range documents {
		if err := core.ValidateDocument(document); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, document := range documents {
			if document.Id == 0 {
				document.Id = core.IDFromContent(fmt.Sprintf("%d|%s|%s", document.BrokerId, document.Title, document.Content))
			}
			if document.UploadedAt.IsZero() {
				document.UploadedAt = now
			}

			if err := tx.Set(makeDocumentKey(document.Id), storage.MarshalDocument(document)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.KnowledgeDocument, error) {
	var result *core.KnowledgeDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
		return err
	}, false)
	return result, err
}

// ListDocuments retrieves all documents for a broker, most recently uploaded
// first.
func (r *DocumentRepository) ListDocuments(ctx context.Context, brokerID core.ID) ([]*core.KnowledgeDocument, error) {
	var results []*core.KnowledgeDocument
	err := r.scanDocuments(func(document *core.KnowledgeDocument) {
		if document.BrokerId == brokerID {
			results = append(results, document)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].UploadedAt.Equal(results[j].UploadedAt) {
			return results[i].Id < results[j].Id
		}
		return results[i].UploadedAt.After(results[j].UploadedAt)
	})
	return results, nil
}

// SetDocumentEmbedding stores the embedding vector for a document, making it
// visible to retrieval.
func (r *DocumentRepository) SetDocumentEmbedding(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithUpdate(ctx, func(tx *badger.Txn) error {
		document, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		document.Vector = vector
		if err := tx.Set(makeDocumentKey(id), storage.MarshalDocument(document)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// UnprocessedDocuments retrieves all documents without an embedding.
func (r *DocumentRepository) UnprocessedDocuments(ctx context.Context) ([]*core.KnowledgeDocument, error) {
	var results []*core.KnowledgeDocument
	err := r.scanDocuments(func(document *core.KnowledgeDocument) {
		if !document.Processed() {
			results = append(results, document)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].UploadedAt.Before(results[j].UploadedAt)
	})
	return results, nil
}

// FindSimilarDocuments returns up to limit documents for the broker ranked
// by dot-product similarity against the query vector. When propertyID is
// non-zero only documents scoped to that property (or unscoped ones) are
// considered. Documents without an embedding never appear in the results.
func (r *DocumentRepository) FindSimilarDocuments(ctx context.Context, vector []float32, brokerID, propertyID core.ID, limit int) ([]*core.DocumentMatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	var matches []*core.DocumentMatch
	err := r.scanDocuments(func(document *core.KnowledgeDocument) {
		if document.BrokerId != brokerID || !document.Processed() {
			return
		}
		if propertyID != 0 && document.PropertyId != 0 && document.PropertyId != propertyID {
			return
		}
		if len(document.Vector) != len(vector) {
			return
		}
		matches = append(matches, &core.DocumentMatch{
			Document: document,
			Score:    dotProduct(vector, document.Vector),
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Document.UploadedAt.After(matches[j].Document.UploadedAt)
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// scanDocuments iterates every document record and hands it to collect.
func (r *DocumentRepository) scanDocuments(collect func(*core.KnowledgeDocument)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var document *core.KnowledgeDocument
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				document, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			if document != nil {
				collect(document)
			}
		}
		return nil
	}, false)
}

// readDocument reads a document record inside a transaction.
func readDocument(tx *badger.Txn, id core.ID) (*core.KnowledgeDocument, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var document *core.KnowledgeDocument
	err = item.Value(func(val []byte) error {
		var err error
		document, err = storage.UnmarshalDocument(val)
		return err
	})
	return document, err
}

// dotProduct computes the similarity of two equal-length vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
