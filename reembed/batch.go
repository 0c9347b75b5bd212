package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
)

// BatchProcessor handles embedding generation for batches of documents.
type BatchProcessor struct {
	docs           storage.DocumentRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(docs storage.DocumentRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		docs:           docs,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of documents and stores them.
// Vectors are normalized after embedding to ensure compatibility with cosine
// similarity.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.EmbeddingText()
	}

	// Generate embeddings with retry
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(docs), len(vectors))
	}

	for i, doc := range docs {
		embed.Normalize(vectors[i])
		if err := bp.docs.UpdateEmbedding(ctx, doc.Key, vectors[i]); err != nil {
			return fmt.Errorf("failed to store embedding for %s: %w", doc.Key, err)
		}
	}

	return nil
}
