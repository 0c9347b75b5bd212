package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
)

// embeddingProcessor generates embeddings for stored documents.
type embeddingProcessor struct {
	docs       storage.DocumentRepository
	embeddings *embed.Service
	logger     *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(docs storage.DocumentRepository, embeddings *embed.Service, logger *slog.Logger) (*embeddingProcessor, error) {
	if docs == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if embeddings == nil {
		return nil, fmt.Errorf("embedding service required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		docs:       docs,
		embeddings: embeddings,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process generates and persists embeddings for the specified documents.
func (ep *embeddingProcessor) process(ctx context.Context, keys ...string) error {
	ep.logger.Info("processing documents for embeddings", "documents", len(keys))

	for _, key := range keys {
		doc, err := ep.docs.GetDocument(ctx, key)
		if err != nil {
			ep.logger.Error("error retrieving document", "key", key, "err", err)
			return err
		}

		vector := ep.embeddings.Embed(ctx, doc.EmbeddingText())
		if err := ep.docs.UpdateEmbedding(ctx, key, vector); err != nil {
			return fmt.Errorf("storing embedding for %s: %w", key, err)
		}
	}

	return nil
}
