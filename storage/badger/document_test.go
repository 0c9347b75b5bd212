package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
)

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.TopicRepository, storage.RelationshipRepository) {
	t.Helper()
	docRepo, topicRepo, relRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() {
		relRepo.Close()
		topicRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo, topicRepo, relRepo
}

func TestDocumentBasics(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := &core.Document{
		Title:      "Database Selection",
		Content:    "We compared several stores.",
		Tags:       []string{"architecture", "database"},
		Confidence: 0.9,
	}

	key, err := docRepo.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if key == "" {
		t.Fatal("Expected generated key")
	}
	if doc.Meta.Version != 1 {
		t.Fatalf("Expected version 1, got %d", doc.Meta.Version)
	}
	if doc.Meta.Created.IsZero() || doc.Meta.Updated.IsZero() {
		t.Fatal("Expected timestamps to be set")
	}

	retrieved, err := docRepo.GetDocument(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != "Database Selection" {
		t.Fatalf("Expected 'Database Selection', got %q", retrieved.Title)
	}

	// Adding the same document again violates the key constraint
	dup := &core.Document{Key: key, Title: "Database Selection", Content: "x"}
	if _, err := docRepo.AddDocument(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDocumentNotFound(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	if _, err := docRepo.GetDocument(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := docRepo.DeleteDocument(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := docRepo.UpdateEmbedding(ctx, "missing", []float32{1}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDocumentUpdate(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := &core.Document{
		Title:     "Notes",
		Content:   "original",
		Tags:      []string{"old", "keep"},
		Embedding: []float32{0.1, 0.2},
	}
	key, err := docRepo.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	updated := &core.Document{
		Key:     key,
		Title:   "Notes",
		Content: "revised",
		Tags:    []string{"keep", "new"},
	}
	if err := docRepo.UpdateDocument(ctx, updated); err != nil {
		t.Fatalf("Failed to update document: %v", err)
	}

	retrieved, err := docRepo.GetDocument(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Content != "revised" {
		t.Fatalf("Expected revised content, got %q", retrieved.Content)
	}
	if retrieved.Meta.Version != 2 {
		t.Fatalf("Expected version 2, got %d", retrieved.Meta.Version)
	}
	// Update without an embedding preserves the stored one
	if len(retrieved.Embedding) != 2 {
		t.Fatalf("Expected stored embedding to survive update, got %v", retrieved.Embedding)
	}

	// Tag index follows tag edits
	oldTagged, err := docRepo.DocumentsByTag(ctx, "old")
	if err != nil {
		t.Fatalf("Failed to query by tag: %v", err)
	}
	if len(oldTagged) != 0 {
		t.Fatalf("Expected dropped tag to be unindexed, got %d docs", len(oldTagged))
	}
	newTagged, err := docRepo.DocumentsByTag(ctx, "new")
	if err != nil {
		t.Fatalf("Failed to query by tag: %v", err)
	}
	if len(newTagged) != 1 {
		t.Fatalf("Expected new tag to be indexed, got %d docs", len(newTagged))
	}
}

func TestDocumentDelete(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := &core.Document{Title: "Doomed", Content: "x", Tags: []string{"gone"}}
	key, err := docRepo.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := docRepo.DeleteDocument(ctx, key); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}
	if _, err := docRepo.GetDocument(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	tagged, err := docRepo.DocumentsByTag(ctx, "gone")
	if err != nil {
		t.Fatalf("Failed to query by tag: %v", err)
	}
	if len(tagged) != 0 {
		t.Fatalf("Expected tag index cleanup on delete, got %d docs", len(tagged))
	}
}

func TestDocumentQueries(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	docs := []*core.Document{
		{Title: "Database Selection", Content: "Postgres and friends", Tags: []string{"architecture", "database"}, Embedding: []float32{1, 0}},
		{Title: "Unrelated Notes", Content: "misc scribbles", Tags: []string{"misc"}},
		{Title: "Index Tuning", Content: "database internals", Tags: []string{"database"}, Embedding: []float32{0, 1}},
	}
	for _, doc := range docs {
		if _, err := docRepo.AddDocument(ctx, doc); err != nil {
			t.Fatalf("Failed to add document: %v", err)
		}
	}

	all, err := docRepo.AllDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(all))
	}

	embedded, err := docRepo.DocumentsWithEmbeddings(ctx)
	if err != nil {
		t.Fatalf("Failed to list embedded documents: %v", err)
	}
	if len(embedded) != 2 {
		t.Fatalf("Expected 2 embedded documents, got %d", len(embedded))
	}

	found, err := docRepo.SearchContent(ctx, "database", 10)
	if err != nil {
		t.Fatalf("Failed to search content: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 content matches, got %d", len(found))
	}

	counts, err := docRepo.TagCounts(ctx)
	if err != nil {
		t.Fatalf("Failed to count tags: %v", err)
	}
	if len(counts) != 4 {
		t.Fatalf("Expected 4 distinct tags, got %d", len(counts))
	}
	if counts[0].Tag != "database" || counts[0].Count != 2 {
		t.Fatalf("Expected 'database' first with count 2, got %+v", counts[0])
	}
}

func TestSimilaritySearch(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	docs := []*core.Document{
		{Key: "exact", Title: "Exact", Content: "x", Embedding: []float32{1, 0, 0}},
		{Key: "close", Title: "Close", Content: "x", Embedding: []float32{0.9, 0.1, 0}},
		{Key: "far", Title: "Far", Content: "x", Embedding: []float32{0, 0, 1}},
		{Key: "none", Title: "None", Content: "x"},
	}
	for _, doc := range docs {
		if _, err := docRepo.AddDocument(ctx, doc); err != nil {
			t.Fatalf("Failed to add document: %v", err)
		}
	}

	query := []float32{1, 0, 0}

	results, err := docRepo.SimilaritySearch(ctx, query, "cosine", 0.5, 10)
	if err != nil {
		t.Fatalf("Similarity search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results above 0.5, got %d", len(results))
	}
	if results[0].Document.Key != "exact" {
		t.Fatalf("Expected 'exact' ranked first, got %q", results[0].Document.Key)
	}
	if results[0].Score < 0.999999 {
		t.Fatalf("Expected identical vectors to score ~1.0, got %f", results[0].Score)
	}
	if results[0].Score < results[1].Score {
		t.Fatal("Expected scores in descending order")
	}

	// High threshold keeps only the identical embedding
	results, err = docRepo.SimilaritySearch(ctx, query, "cosine", 0.99, 10)
	if err != nil {
		t.Fatalf("Similarity search failed: %v", err)
	}
	if len(results) != 1 || results[0].Document.Key != "exact" {
		t.Fatalf("Expected only the exact match, got %d results", len(results))
	}

	// Unknown metric is reported so callers can fall back
	if _, err := docRepo.SimilaritySearch(ctx, query, "manhattan", 0, 10); !errors.Is(err, storage.ErrUnsupportedMetric) {
		t.Fatalf("Expected ErrUnsupportedMetric, got %v", err)
	}
}
