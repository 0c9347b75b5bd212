package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/storage"
)

// Pipeline orchestrates bulk ingestion of knowledge documents.
// Documents are stored synchronously; embedding happens on a worker pool.
type Pipeline struct {
	docs       storage.DocumentRepository
	embeddings *embed.Service
	pool       *ants.Pool
	proc       *embeddingProcessor
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(docs storage.DocumentRepository, embeddings *embed.Service, opts ...Option) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingServiceRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docs:       docs,
		embeddings: embeddings,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	proc, err := newEmbeddingProcessor(docs, embeddings, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.proc = proc

	return p, nil
}

// Ingest validates and stores the given documents, returning their keys in
// input order. Embeddings are generated asynchronously; errors during async
// processing are logged but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, documents ...*core.Document) ([]string, error) {
	keys := make([]string, 0, len(documents))
	for _, doc := range documents {
		if err := core.ValidateDocument(doc); err != nil {
			return keys, err
		}
		key, err := p.docs.AddDocument(ctx, doc)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return keys, nil
	}

	batch := make([]string, len(keys))
	copy(batch, keys)

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		if err := p.proc.process(context.Background(), batch...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})
	if err != nil {
		p.wg.Done()
		p.logger.Error("error submitting embedding work", "err", err)
	}

	return keys, nil
}

// Wait blocks until all in-flight embedding work has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
