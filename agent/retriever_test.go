package agent

import (
	"context"
	"testing"

	"github.com/poiesic/brokerit/ai/mock"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieverRanksByRelevance(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	embedder := mock.NewMockEmbedder()

	titles := []string{"Lakeside Villa", "Downtown Condo", "Suburban House"}
	ids := make([]core.ID, len(titles))
	for i, title := range titles {
		docs, err := repos.Documents.AddDocuments(ctx, &core.KnowledgeDocument{
			BrokerId: 1,
			Title:    title,
			FileType: "txt",
			Content:  title + " details",
		})
		require.NoError(t, err)

		vector, err := embedder.EmbedText(ctx, title+" details")
		require.NoError(t, err)
		require.NoError(t, repos.Documents.SetDocumentEmbedding(ctx, docs[0].Id, vector))
		ids[i] = docs[0].Id
	}

	retriever := NewRetriever(repos.Documents, 2)

	// Querying with a document's own embedding ranks it first
	query, err := embedder.EmbedText(ctx, "Downtown Condo details")
	require.NoError(t, err)

	matches, err := retriever.Retrieve(ctx, query, 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2, "should honor the configured limit")
	assert.Equal(t, ids[1], matches[0].Document.Id, "exact match should rank first")
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestRetrieverScopesByBroker(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	embedder := mock.NewMockEmbedder()

	docs, err := repos.Documents.AddDocuments(ctx, &core.KnowledgeDocument{
		BrokerId: 2,
		Title:    "Other tenant",
		Content:  "not yours",
	})
	require.NoError(t, err)

	vector, err := embedder.EmbedText(ctx, "not yours")
	require.NoError(t, err)
	require.NoError(t, repos.Documents.SetDocumentEmbedding(ctx, docs[0].Id, vector))

	retriever := NewRetriever(repos.Documents, DefaultTopK)
	matches, err := retriever.Retrieve(ctx, vector, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, matches, "another broker's documents must stay invisible")
}
