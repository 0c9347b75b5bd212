package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
	badgerstore "github.com/mimir-kb/mimir/storage/badger"
)

func newDocRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	docs, _, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return docs
}

func newSmartSearcher(t *testing.T) (*SmartSearcher, storage.DocumentRepository) {
	t.Helper()
	docs := newDocRepo(t)
	searcher, err := NewSmartSearcher(docs)
	require.NoError(t, err)
	return searcher, docs
}

func addDoc(t *testing.T, docs storage.DocumentRepository, doc *core.Document) string {
	t.Helper()
	key, err := docs.AddDocument(context.Background(), doc)
	require.NoError(t, err)
	return key
}

func TestSmartSearcherRequiresRepository(t *testing.T) {
	_, err := NewSmartSearcher(nil)
	assert.Equal(t, ErrDocumentRepositoryRequired, err)
}

func TestSearchWeightedScoring(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	// Term in title and tag, no summary: (1.0 + 0 + 0.7) / 3
	keyA := addDoc(t, docs, &core.Document{
		Title:   "Database design",
		Content: "Covers schema layout and normalization.",
		Tags:    []string{"database", "design"},
	})
	// Term only in content, no summary: 0.5 / 3
	addDoc(t, docs, &core.Document{
		Title:   "Storage engines",
		Content: "A database stores rows in pages.",
	})
	// No match at all
	addDoc(t, docs, &core.Document{
		Title:   "Networking basics",
		Content: "TCP and UDP explained.",
	})

	results, err := searcher.Search(ctx, "database", 0.1, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, keyA, results[0].Document.Key)
	assert.GreaterOrEqual(t, results[0].Score, 0.5)
	assert.Less(t, results[1].Score, results[0].Score)
}

func TestSearchMinScoreFiltersWeakMatches(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	keyA := addDoc(t, docs, &core.Document{
		Title:   "Database Selection",
		Content: "Choosing a database for the project.",
		Tags:    []string{"architecture", "database"},
	})
	addDoc(t, docs, &core.Document{
		Title:   "Unrelated Notes",
		Content: "Nothing relevant here.",
		Tags:    []string{"misc"},
	})
	// Content-only match: 0.5 / 3 ≈ 0.167, below the 0.3 floor
	contentOnly := addDoc(t, docs, &core.Document{
		Title:   "Storage engines",
		Content: "A database stores rows in pages.",
	})

	results, err := searcher.Search(ctx, "database", 0.1, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, keyA, results[0].Document.Key)
	assert.GreaterOrEqual(t, results[0].Score, 0.5)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.1)
	}

	filtered, err := searcher.Search(ctx, "database", 0.3, 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, keyA, filtered[0].Document.Key)
	for _, r := range filtered {
		assert.NotEqual(t, contentOnly, r.Document.Key)
	}
}

func TestSearchSummaryWeight(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	// Summary adds a fourth scoring field only for documents that have one
	withSummary := addDoc(t, docs, &core.Document{
		Title:   "Unrelated title",
		Content: "Unrelated content.",
		Summary: "All about caching strategies.",
	})

	results, err := searcher.Search(ctx, "caching", 0.1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, withSummary, results[0].Document.Key)
	// 0.8 / 4 fields
	assert.InDelta(t, 0.2, results[0].Score, 0.01)
}

func TestSearchTermExpansion(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	addDoc(t, docs, &core.Document{
		Title:   "Index maintenance",
		Content: "How to rebuild an index.",
	})

	// "rebuilds" expands to "rebuild"
	results, err := searcher.Search(ctx, "rebuilds", 0.0, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEmptyAndStopWordQuery(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	addDoc(t, docs, &core.Document{Title: "Anything", Content: "Anything at all."})

	for _, query := range []string{"", "   ", "the and or", "a"} {
		results, err := searcher.Search(ctx, query, 0.0, 10)
		require.NoError(t, err, "query %q", query)
		assert.Empty(t, results, "query %q", query)
	}
}

func TestSearchLimit(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	for _, title := range []string{"Go tips one", "Go tips two", "Go tips three"} {
		addDoc(t, docs, &core.Document{Title: title, Content: "Some go content."})
	}

	results, err := searcher.Search(ctx, "tips", 0.3, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFuzzySearch(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	target := addDoc(t, docs, &core.Document{
		Title:   "database indexing",
		Content: "btree and hash indexes",
	})
	addDoc(t, docs, &core.Document{
		Title:   "container orchestration",
		Content: "pods and services",
	})

	// Typo in the query still finds the indexing document
	results, err := searcher.FuzzySearch(ctx, "database indexng", 2, 0.3, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, target, results[0].Document.Key)
	assert.Greater(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestFuzzySearchMinScore(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	// Contains the term but the whole text barely resembles the query
	addDoc(t, docs, &core.Document{
		Title:   "Operations runbook",
		Content: "Pager rotation, database failover drills, quarterly capacity reviews and escalation ladders.",
	})

	loose, err := searcher.FuzzySearch(ctx, "database", 2, 0.1, 10)
	require.NoError(t, err)
	require.Len(t, loose, 1)

	strict, err := searcher.FuzzySearch(ctx, "database", 2, 0.9, 10)
	require.NoError(t, err)
	assert.Empty(t, strict)
	for _, r := range loose {
		assert.GreaterOrEqual(t, r.Score, 0.1)
	}
}

func TestFuzzySearchCandidatesFromTitleAndContentOnly(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	// The term appears only in tags and summary, so the document is not
	// a candidate at all
	addDoc(t, docs, &core.Document{
		Title:   "Quarterly planning",
		Content: "Roadmap themes and staffing.",
		Summary: "Mentions database sizing in passing.",
		Tags:    []string{"database"},
	})

	results, err := searcher.FuzzySearch(ctx, "database", 2, 0.0, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzySearchNoCandidates(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	addDoc(t, docs, &core.Document{Title: "Networking", Content: "TCP handshakes."})

	results, err := searcher.FuzzySearch(ctx, "astronomy", 2, 0.3, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSuggest(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	addDoc(t, docs, &core.Document{
		Title:   "Database migrations",
		Content: "Running schema changes.",
		Tags:    []string{"database"},
	})
	addDoc(t, docs, &core.Document{
		Title:   "Database backups",
		Content: "Snapshot strategies.",
		Tags:    []string{"database", "operations"},
	})

	suggestions, err := searcher.Suggest(ctx, "dat", 10)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "database", suggestions[0].Term)
	assert.Equal(t, 2, suggestions[0].Count)
}

func TestSuggestEmptyQueryReturnsTopTags(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	addDoc(t, docs, &core.Document{Title: "One", Content: "c", Tags: []string{"golang", "storage"}})
	addDoc(t, docs, &core.Document{Title: "Two", Content: "c", Tags: []string{"golang"}})

	suggestions, err := searcher.Suggest(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "golang", suggestions[0].Term)
	assert.Equal(t, 2, suggestions[0].Count)
}

func TestSimilarQueries(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	addDoc(t, docs, &core.Document{
		Title:   "Database indexing",
		Content: "Indexing accelerates database lookups.",
		Tags:    []string{"performance"},
	})
	addDoc(t, docs, &core.Document{
		Title:   "Database replication",
		Content: "Replication copies database state.",
	})

	related, err := searcher.SimilarQueries(ctx, "database", 10)
	require.NoError(t, err)
	require.NotEmpty(t, related)

	found := make(map[string]bool, len(related))
	for _, r := range related {
		found[r.Term] = true
		assert.NotEqual(t, "database", r.Term, "query terms are excluded from suggestions")
	}
	assert.True(t, found["database indexing"] || found["database replication"],
		"expected co-occurring word suggestions, got %+v", related)
	assert.True(t, found["database performance"],
		"expected tag suggestion 'database performance', got %+v", related)
}

func TestSimilarQueriesIncludesTagOnlyDocuments(t *testing.T) {
	searcher, docs := newSmartSearcher(t)
	ctx := context.Background()

	// The query term appears only as a tag; the document still contributes
	// its words as follow-up candidates
	addDoc(t, docs, &core.Document{
		Title:   "Sharding playbook",
		Content: "Partitioning keyspaces across nodes.",
		Tags:    []string{"database"},
	})

	related, err := searcher.SimilarQueries(ctx, "database", 10)
	require.NoError(t, err)
	require.NotEmpty(t, related)

	found := make(map[string]bool, len(related))
	for _, r := range related {
		found[r.Term] = true
	}
	assert.True(t, found["database sharding"] || found["database partitioning"],
		"expected terms from the tagged document, got %+v", related)
}

func TestSimilarQueriesEmptyQuery(t *testing.T) {
	searcher, _ := newSmartSearcher(t)

	related, err := searcher.SimilarQueries(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, related)
}
