package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
	"github.com/mimir-kb/mimir/storage/badger"
)

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.DocumentRepository) {
	t.Helper()

	docs, _, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docs.Close()
		backend.Close()
	})

	embeddings := embed.NewService(ai.NewConfig(), embed.WithoutModel())
	p, err := NewPipeline(docs, embeddings, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return p, docs
}

func TestNewPipeline(t *testing.T) {
	t.Run("requires document repository", func(t *testing.T) {
		embeddings := embed.NewService(ai.NewConfig(), embed.WithoutModel())
		_, err := NewPipeline(nil, embeddings)
		require.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	})

	t.Run("requires embedding service", func(t *testing.T) {
		docs, _, _, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer backend.Close()
		defer docs.Close()

		_, err = NewPipeline(docs, nil)
		require.ErrorIs(t, err, ErrEmbeddingServiceRequired)
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and embeds documents", func(t *testing.T) {
		p, docs := newTestPipeline(t, WithPoolSize(2))

		keys, err := p.Ingest(ctx,
			&core.Document{Title: "First", Content: "First document body.", Confidence: 0.9},
			&core.Document{Title: "Second", Content: "Second document body.", Confidence: 0.9},
			&core.Document{Title: "Third", Content: "Third document body.", Confidence: 0.9},
		)
		require.NoError(t, err)
		require.Len(t, keys, 3)
		p.Wait()

		for _, key := range keys {
			doc, err := docs.GetDocument(ctx, key)
			require.NoError(t, err)
			assert.NotEmpty(t, doc.Embedding, "document %s should be embedded", key)
		}
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		p, _ := newTestPipeline(t)

		keys, err := p.Ingest(ctx,
			&core.Document{Title: "Valid", Content: "Body.", Confidence: 0.9},
			&core.Document{Content: "No title.", Confidence: 0.9},
		)
		require.ErrorIs(t, err, core.ErrEmptyTitle)
		assert.Len(t, keys, 1, "documents before the invalid one are kept")
		p.Wait()
	})

	t.Run("no documents is a no-op", func(t *testing.T) {
		p, _ := newTestPipeline(t)

		keys, err := p.Ingest(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("pool size below one is clamped", func(t *testing.T) {
		p, docs := newTestPipeline(t, WithPoolSize(0))

		keys, err := p.Ingest(ctx, &core.Document{Title: "Solo", Content: "Body.", Confidence: 0.9})
		require.NoError(t, err)
		p.Wait()

		doc, err := docs.GetDocument(ctx, keys[0])
		require.NoError(t, err)
		assert.NotEmpty(t, doc.Embedding)
	})
}
