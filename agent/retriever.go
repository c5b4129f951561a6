package agent

import (
	"context"
	"log/slog"

	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

// DefaultTopK is the number of documents retrieved per query unless
// configured otherwise.
const DefaultTopK = 5

// Retriever finds the most relevant knowledge documents for a query vector
// within a tenant scope.
type Retriever struct {
	documents storage.DocumentRepository
	topK      int
	logger    *slog.Logger
}

// NewRetriever creates a Retriever. A topK of 0 or less falls back to
// DefaultTopK.
func NewRetriever(documents storage.DocumentRepository, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		documents: documents,
		topK:      topK,
		logger:    slog.Default().With("component", "retriever"),
	}
}

// Retrieve returns up to topK documents for the broker ranked by similarity
// to the query vector. An empty result is a valid outcome.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, brokerID, propertyID core.ID) ([]*core.DocumentMatch, error) {
	matches, err := r.documents.FindSimilarDocuments(ctx, vector, brokerID, propertyID, r.topK)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("documents retrieved", "broker_id", brokerID, "count", len(matches))
	return matches, nil
}
