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

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
)

const (
	// DefaultBatchSize is the default number of documents to process in each batch
	DefaultBatchSize = 100
)

// DocumentIterator iterates over all documents in batches.
type DocumentIterator struct {
	docs      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// batchSize: number of documents in each batch (must be > 0)
func NewDocumentIterator(docs storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		docs:      docs,
		batchSize: batchSize,
	}
}

// ForEach iterates over all documents, calling fn for each batch.
// Iteration stops on first error from fn or when all documents are processed.
// Context cancellation is checked between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.Document) error) error {
	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	docs, err := it.docs.AllDocuments(ctx)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		// Nothing to process
		return nil
	}

	for i := 0; i < len(docs); i += it.batchSize {
		end := i + it.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		if err := fn(docs[i:end]); err != nil {
			return err
		}

		// Check context after each batch
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
