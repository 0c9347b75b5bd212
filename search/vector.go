package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
)

// VectorSearcher performs semantic search over document embeddings. The
// query is embedded and matched against stored vectors using a chain of
// strategies: the store-native search first, then an application-side scan
// if the backend cannot serve the request.
type VectorSearcher struct {
	docs       storage.DocumentRepository
	embeddings *embed.Service
	strategies []Strategy
	logger     *slog.Logger
}

// VectorOption configures a VectorSearcher.
type VectorOption func(*VectorSearcher)

// WithVectorLogger sets a custom logger.
// Default is slog.Default().
func WithVectorLogger(logger *slog.Logger) VectorOption {
	return func(v *VectorSearcher) {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
	}
}

// WithStrategies replaces the default strategy chain.
func WithStrategies(strategies ...Strategy) VectorOption {
	return func(v *VectorSearcher) {
		v.strategies = strategies
	}
}

// NewVectorSearcher creates a new semantic searcher.
func NewVectorSearcher(docs storage.DocumentRepository, embeddings *embed.Service, opts ...VectorOption) (*VectorSearcher, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingServiceRequired
	}

	v := &VectorSearcher{
		docs:       docs,
		embeddings: embeddings,
		strategies: []Strategy{
			&nativeStrategy{docs: docs},
			&localStrategy{docs: docs},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Search embeds the query and returns documents whose stored embeddings
// score at least minScore, best first. Search never fails: if every
// strategy errors, the failure is logged and no results are returned.
func (v *VectorSearcher) Search(ctx context.Context, query string, minScore float64, limit int) []core.ScoredDocument {
	vector := v.embeddings.Embed(ctx, query)

	for _, strategy := range v.strategies {
		results, err := strategy.Search(ctx, vector, minScore, limit)
		if err != nil {
			v.logger.Warn("similarity strategy failed, trying next",
				"strategy", strategy.Name(), "err", err)
			continue
		}
		v.logger.Debug("semantic search complete",
			"strategy", strategy.Name(), "minScore", minScore, "hits", len(results))
		return results
	}

	v.logger.Error("all similarity strategies failed", "query", query)
	return []core.ScoredDocument{}
}

// UpdateDocumentEmbeddings regenerates and stores embeddings for the given
// documents, or for every document when no keys are passed. Unknown keys and
// documents that fail to fetch or persist are skipped, not counted, and do
// not stop the run. Returns the number of documents updated.
func (v *VectorSearcher) UpdateDocumentEmbeddings(ctx context.Context, keys ...string) (int, error) {
	var docs []*core.Document

	if len(keys) == 0 {
		all, err := v.docs.AllDocuments(ctx)
		if err != nil {
			return 0, err
		}
		docs = all
	} else {
		for _, key := range keys {
			doc, err := v.docs.GetDocument(ctx, key)
			if errors.Is(err, storage.ErrNotFound) {
				v.logger.Debug("skipping unknown document key", "key", key)
				continue
			}
			if err != nil {
				v.logger.Warn("failed to fetch document, skipping", "key", key, "err", err)
				continue
			}
			docs = append(docs, doc)
		}
	}

	updated := 0
	for _, doc := range docs {
		vector := v.embeddings.Embed(ctx, doc.EmbeddingText())
		if err := v.docs.UpdateEmbedding(ctx, doc.Key, vector); err != nil {
			v.logger.Warn("failed to store embedding, skipping", "key", doc.Key, "err", err)
			continue
		}
		updated++
	}

	v.logger.Info("document embeddings updated", "count", updated)
	return updated, nil
}
