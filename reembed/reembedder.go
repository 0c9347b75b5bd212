// Copyright 2025 The Mimir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
	"github.com/panjf2000/ants/v2"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Workers is the number of batches embedded concurrently
	Workers int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Workers:        workers,
	}
}

// Reembedder orchestrates the reembedding of all documents in a knowledge base.
type Reembedder struct {
	docs      storage.DocumentRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *DocumentIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(docs storage.DocumentRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	processor := NewBatchProcessor(docs, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewDocumentIterator(docs, config.BatchSize)

	return &Reembedder{
		docs:      docs,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the reembedding operation.
// All documents in the knowledge base are reembedded with the configured
// embedder. Batches run concurrently on a worker pool; progress is reported
// to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	allDocs, err := r.docs.AllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}

	total := len(allDocs)
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents found in knowledge base (0 documents)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d documents (batch size: %d, workers: %d)\n",
		total, r.config.BatchSize, r.config.Workers)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	pool, err := ants.NewPool(r.config.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	err = r.iterator.ForEach(ctx, func(batch []*core.Document) error {
		mu.Lock()
		failed := firstErr
		mu.Unlock()
		if failed != nil {
			return failed
		}

		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			if procErr := r.processor.Process(ctx, batch); procErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = procErr
				}
				mu.Unlock()
				return
			}
			tracker.Increment(len(batch))
		}); submitErr != nil {
			wg.Done()
			return submitErr
		}
		return nil
	})

	wg.Wait()

	if err != nil {
		return err
	}
	mu.Lock()
	failed := firstErr
	mu.Unlock()
	if failed != nil {
		return fmt.Errorf("failed to process batch: %w", failed)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d documents in %v (%.1f documents/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
