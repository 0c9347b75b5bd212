package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
)

type failingStrategy struct {
	calls int
}

func (f *failingStrategy) Name() string { return "failing" }

func (f *failingStrategy) Search(ctx context.Context, vector []float32, minScore float64, limit int) ([]core.ScoredDocument, error) {
	f.calls++
	return nil, errors.New("backend cannot score vectors")
}

// flakyDocumentRepository fails selected operations for one document key.
type flakyDocumentRepository struct {
	storage.DocumentRepository
	failUpdateKey string
	failFetchKey  string
}

func (r *flakyDocumentRepository) UpdateEmbedding(ctx context.Context, key string, vector []float32) error {
	if key == r.failUpdateKey {
		return errors.New("disk full")
	}
	return r.DocumentRepository.UpdateEmbedding(ctx, key, vector)
}

func (r *flakyDocumentRepository) GetDocument(ctx context.Context, key string) (*core.Document, error) {
	if key == r.failFetchKey {
		return nil, errors.New("corrupted record")
	}
	return r.DocumentRepository.GetDocument(ctx, key)
}

func newVectorFixture(t *testing.T, opts ...VectorOption) (*VectorSearcher, *embed.Service, func(title, content string) string) {
	t.Helper()
	docs := newDocRepo(t)
	embeddings := embed.NewService(ai.NewConfig(), embed.WithoutModel())

	searcher, err := NewVectorSearcher(docs, embeddings, opts...)
	require.NoError(t, err)

	add := func(title, content string) string {
		key, err := docs.AddDocument(context.Background(), &core.Document{Title: title, Content: content})
		require.NoError(t, err)
		return key
	}
	return searcher, embeddings, add
}

func TestVectorSearcherRequiresDependencies(t *testing.T) {
	embeddings := embed.NewService(ai.NewConfig(), embed.WithoutModel())
	_, err := NewVectorSearcher(nil, embeddings)
	assert.Equal(t, ErrDocumentRepositoryRequired, err)

	docs := newDocRepo(t)
	_, err = NewVectorSearcher(docs, nil)
	assert.Equal(t, ErrEmbeddingServiceRequired, err)
}

func TestVectorSearchRanksByEmbeddingSimilarity(t *testing.T) {
	searcher, _, add := newVectorFixture(t)
	ctx := context.Background()

	target := add("caching layers", "memcached and redis as read-through caches")
	add("container networking", "overlay networks route pod traffic")

	_, err := searcher.UpdateDocumentEmbeddings(ctx)
	require.NoError(t, err)

	results := searcher.Search(ctx, "caching layers memcached and redis as read-through caches", 0.0, 10)
	require.NotEmpty(t, results)
	assert.Equal(t, target, results[0].Document.Key)
	assert.Greater(t, results[0].Score, 0.9)
}

func TestVectorSearchMinScoreAndLimit(t *testing.T) {
	searcher, _, add := newVectorFixture(t)
	ctx := context.Background()

	add("alpha", "first document body")
	add("beta", "second document body")
	add("gamma", "third document body")

	_, err := searcher.UpdateDocumentEmbeddings(ctx)
	require.NoError(t, err)

	all := searcher.Search(ctx, "document body", 0.0, 10)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i].Score, all[i-1].Score, "results ordered by score descending")
	}

	limited := searcher.Search(ctx, "document body", 0.0, 2)
	assert.Len(t, limited, 2)

	none := searcher.Search(ctx, "document body", 0.999, 10)
	for _, r := range none {
		assert.GreaterOrEqual(t, r.Score, 0.999)
	}
}

func TestVectorSearchSkipsUnembeddedDocuments(t *testing.T) {
	searcher, _, add := newVectorFixture(t)
	ctx := context.Background()

	add("no embedding yet", "this document was never embedded")

	results := searcher.Search(ctx, "never embedded", 0.0, 10)
	assert.Empty(t, results)
}

func TestVectorSearchFallsBackToNextStrategy(t *testing.T) {
	failing := &failingStrategy{}
	searcher, _, add := newVectorFixture(t)
	local := &localStrategy{docs: searcher.docs}
	searcher.strategies = []Strategy{failing, local}
	ctx := context.Background()

	add("fallback target", "content served by the application-side scan")
	_, err := searcher.UpdateDocumentEmbeddings(ctx)
	require.NoError(t, err)

	results := searcher.Search(ctx, "application-side scan", 0.0, 10)
	assert.Equal(t, 1, failing.calls)
	assert.NotEmpty(t, results, "fallback strategy serves results")
}

func TestVectorSearchDegradesToEmpty(t *testing.T) {
	searcher, _, _ := newVectorFixture(t, WithStrategies(&failingStrategy{}, &failingStrategy{}))

	results := searcher.Search(context.Background(), "anything", 0.0, 10)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestUpdateDocumentEmbeddings(t *testing.T) {
	searcher, embeddings, add := newVectorFixture(t)
	ctx := context.Background()

	keyA := add("first", "first content")
	add("second", "second content")

	count, err := searcher.UpdateDocumentEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	doc, err := searcher.docs.GetDocument(ctx, keyA)
	require.NoError(t, err)
	assert.Len(t, doc.Embedding, embeddings.Dimension())
}

func TestUpdateDocumentEmbeddingsSelectedKeys(t *testing.T) {
	searcher, _, add := newVectorFixture(t)
	ctx := context.Background()

	keyA := add("first", "first content")
	keyB := add("second", "second content")

	count, err := searcher.UpdateDocumentEmbeddings(ctx, keyA)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	docB, err := searcher.docs.GetDocument(ctx, keyB)
	require.NoError(t, err)
	assert.Empty(t, docB.Embedding, "untouched document stays unembedded")
}

func TestUpdateDocumentEmbeddingsUnknownKey(t *testing.T) {
	searcher, _, _ := newVectorFixture(t)

	count, err := searcher.UpdateDocumentEmbeddings(context.Background(), "no-such-key")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUpdateDocumentEmbeddingsSkipsFailedWrites(t *testing.T) {
	docs := newDocRepo(t)
	embeddings := embed.NewService(ai.NewConfig(), embed.WithoutModel())
	ctx := context.Background()

	add := func(title string) string {
		key, err := docs.AddDocument(ctx, &core.Document{Title: title, Content: title + " content"})
		require.NoError(t, err)
		return key
	}
	keyA := add("first")
	keyB := add("second")
	keyC := add("third")

	flaky := &flakyDocumentRepository{DocumentRepository: docs, failUpdateKey: keyB}
	searcher, err := NewVectorSearcher(flaky, embeddings)
	require.NoError(t, err)

	count, err := searcher.UpdateDocumentEmbeddings(ctx, keyA, keyB, keyC)
	require.NoError(t, err, "a failing document does not abort the run")
	assert.Equal(t, 2, count)

	docA, err := docs.GetDocument(ctx, keyA)
	require.NoError(t, err)
	assert.NotEmpty(t, docA.Embedding)
	docC, err := docs.GetDocument(ctx, keyC)
	require.NoError(t, err)
	assert.NotEmpty(t, docC.Embedding)
	docB, err := docs.GetDocument(ctx, keyB)
	require.NoError(t, err)
	assert.Empty(t, docB.Embedding)
}

func TestUpdateDocumentEmbeddingsSkipsFailedFetches(t *testing.T) {
	docs := newDocRepo(t)
	embeddings := embed.NewService(ai.NewConfig(), embed.WithoutModel())
	ctx := context.Background()

	keyA, err := docs.AddDocument(ctx, &core.Document{Title: "first", Content: "first content"})
	require.NoError(t, err)
	keyB, err := docs.AddDocument(ctx, &core.Document{Title: "second", Content: "second content"})
	require.NoError(t, err)

	flaky := &flakyDocumentRepository{DocumentRepository: docs, failFetchKey: keyA}
	searcher, err := NewVectorSearcher(flaky, embeddings)
	require.NoError(t, err)

	count, err := searcher.UpdateDocumentEmbeddings(ctx, keyA, keyB)
	require.NoError(t, err, "an unreadable document does not abort the run")
	assert.Equal(t, 1, count)

	docB, err := docs.GetDocument(ctx, keyB)
	require.NoError(t, err)
	assert.NotEmpty(t, docB.Embedding)
}
