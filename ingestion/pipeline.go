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

package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/brokerit/ai"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

const (
	// DefaultEmbedAttempts is how many times an embedding run is attempted
	// before the document stays unprocessed for a later Reprocess sweep.
	DefaultEmbedAttempts = 3

	// DefaultEmbedBaseDelay is the initial backoff between embedding
	// attempts.
	DefaultEmbedBaseDelay = time.Second
)

// Pipeline stores knowledge documents and generates their embeddings
// asynchronously.
type Pipeline struct {
	documents    storage.DocumentRepository
	embedder     ai.Embedder
	pool         *ants.Pool
	maxAttempts  int
	baseDelay    time.Duration
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithRetry sets the embedding retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		if baseDelay > 0 {
			p.baseDelay = baseDelay
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new document ingestion pipeline.
func NewPipeline(documents storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:    documents,
		embedder:     embedder,
		pool:         pool,
		maxAttempts:  DefaultEmbedAttempts,
		baseDelay:    DefaultEmbedBaseDelay,
		embedTimeout: 2 * time.Minute,
		logger:       slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// AddDocument stores a document and submits it for asynchronous embedding.
// The document is not visible to similarity search until embedding
// completes. Embedding errors are logged, not returned; a later Reprocess
// picks the document up again.
func (p *Pipeline) AddDocument(ctx context.Context, document *core.KnowledgeDocument) (*core.KnowledgeDocument, error) {
	if document == nil || strings.TrimSpace(document.Content) == "" {
		return nil, ErrEmptyDocument
	}

	added, err := p.documents.AddDocuments(ctx, document)
	if err != nil {
		return nil, err
	}
	stored := added[0]

	if len(stored.Vector) > 0 {
		// Re-upload of already embedded content
		return stored, nil
	}

	id := stored.Id
	if err := p.pool.Submit(func() { p.embedDocument(id) }); err != nil {
		p.logger.Error("error submitting document for embedding", "document_id", id, "err", err)
	}
	return stored, nil
}

// Reprocess submits every unprocessed document for embedding. Returns the
// number of documents submitted.
func (p *Pipeline) Reprocess(ctx context.Context) (int, error) {
	pending, err := p.documents.UnprocessedDocuments(ctx)
	if err != nil {
		return 0, err
	}

	for _, document := range pending {
		id := document.Id
		if err := p.pool.Submit(func() { p.embedDocument(id) }); err != nil {
			p.logger.Error("error submitting document for embedding", "document_id", id, "err", err)
		}
	}

	if len(pending) > 0 {
		p.logger.Info("reprocessing unprocessed documents", "documents", len(pending))
	}
	return len(pending), nil
}

func (p *Pipeline) embedDocument(id core.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), p.embedTimeout)
	defer cancel()

	document, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		p.logger.Error("error loading document for embedding", "document_id", id, "err", err)
		return
	}
	if len(document.Vector) > 0 {
		return
	}

	var vector []float32
	err = retryWithBackoff(ctx, func() error {
		var embedErr error
		vector, embedErr = p.embedder.EmbedText(ctx, document.Content)
		return embedErr
	}, p.maxAttempts, p.baseDelay)
	if err != nil {
		p.logger.Error("error generating document embedding", "document_id", id, "err", err)
		return
	}

	if err := p.documents.SetDocumentEmbedding(ctx, id, vector); err != nil {
		p.logger.Error("error storing document embedding", "document_id", id, "err", err)
		return
	}

	p.logger.Debug("document embedded", "document_id", id, "dimensions", len(vector))
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
