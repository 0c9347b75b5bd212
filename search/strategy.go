package search

import (
	"context"

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
)

// Strategy executes a vector similarity search. Strategies are tried in
// order, so a fast store-native implementation can sit in front of a slower
// application-side scan.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Search returns documents whose embeddings score at least minScore
	// against the query vector, best first.
	Search(ctx context.Context, vector []float32, minScore float64, limit int) ([]core.ScoredDocument, error)
}

// nativeStrategy delegates similarity scoring to the storage backend.
type nativeStrategy struct {
	docs storage.DocumentRepository
}

func (n *nativeStrategy) Name() string { return "store-native" }

func (n *nativeStrategy) Search(ctx context.Context, vector []float32, minScore float64, limit int) ([]core.ScoredDocument, error) {
	return n.docs.SimilaritySearch(ctx, vector, "cosine", minScore, limit)
}

// localStrategy loads embedded documents and scores them in process. It is
// the fallback when the backend cannot score vectors itself.
type localStrategy struct {
	docs storage.DocumentRepository
}

func (l *localStrategy) Name() string { return "application-side" }

func (l *localStrategy) Search(ctx context.Context, vector []float32, minScore float64, limit int) ([]core.ScoredDocument, error) {
	docs, err := l.docs.DocumentsWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]core.ScoredDocument, 0)
	for _, doc := range docs {
		score := embed.CosineSimilarity(vector, doc.Embedding)
		if score >= minScore {
			results = append(results, core.ScoredDocument{Document: doc, Score: score})
		}
	}

	sortScored(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
