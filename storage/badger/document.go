package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is closed separately.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SimilaritySearch delegates to the backend.
func (r *DocumentRepository) SimilaritySearch(ctx context.Context, vector []float32, metric string, minScore float64, limit int) ([]core.ScoredDocument, error) {
	return r.backend.SimilaritySearch(ctx, vector, metric, minScore, limit)
}

// AddDocument stores a new document and returns its key.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (string, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Key == "" {
			doc.Key = core.KeyFromContent(doc.Title + "\x00" + doc.Content)
		}

		key := makeDocumentKey(doc.Key)
		existing, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrDuplicateKey
		}

		now := time.Now().UTC()
		if doc.Meta.Created.IsZero() {
			doc.Meta.Created = now
		}
		doc.Meta.Updated = now
		if doc.Meta.Version == 0 {
			doc.Meta.Version = 1
		}

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Tag index
		for _, tag := range doc.Tags {
			tagKey := makeDocumentTagKey(tag, doc.Key)
			if err := tx.Set(tagKey, []byte(doc.Key)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)

	return doc.Key, err
}

// UpdateDocument replaces an existing document.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, doc *core.Document) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Key)

		old, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		// Embeddings are maintained by a separate pass; a document update
		// that carries no embedding keeps the stored one.
		if doc.Embedding == nil {
			doc.Embedding = old.Embedding
		}
		doc.Meta.Created = old.Meta.Created
		doc.Meta.Updated = time.Now().UTC()
		doc.Meta.Version = old.Meta.Version + 1

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Reconcile the tag index with the new tag set
		for _, tag := range old.Tags {
			if !slices.Contains(doc.Tags, tag) {
				if err := tx.Delete(makeDocumentTagKey(tag, doc.Key)); err != nil {
					return err
				}
			}
		}
		for _, tag := range doc.Tags {
			if !slices.Contains(old.Tags, tag) {
				if err := tx.Set(makeDocumentTagKey(tag, doc.Key), []byte(doc.Key)); err != nil {
					return err
				}
			}
		}

		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document and its tag index entries.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, key string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		recordKey := makeDocumentKey(key)

		doc, err := r.readDocument(tx, recordKey)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		for _, tag := range doc.Tags {
			if err := tx.Delete(makeDocumentTagKey(tag, key)); err != nil {
				return err
			}
		}

		if err := tx.Delete(recordKey); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document by key.
func (r *DocumentRepository) GetDocument(ctx context.Context, key string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDocument(tx, makeDocumentKey(key))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// AllDocuments retrieves every document in the corpus.
func (r *DocumentRepository) AllDocuments(ctx context.Context) ([]*core.Document, error) {
	return r.scanDocuments(func(doc *core.Document) bool { return true }, 0)
}

// DocumentsWithEmbeddings retrieves documents carrying a non-empty embedding.
func (r *DocumentRepository) DocumentsWithEmbeddings(ctx context.Context) ([]*core.Document, error) {
	return r.scanDocuments(func(doc *core.Document) bool {
		return len(doc.Embedding) > 0
	}, 0)
}

// SearchContent retrieves documents whose title or content contains the
// query, case-insensitive.
func (r *DocumentRepository) SearchContent(ctx context.Context, query string, limit int) ([]*core.Document, error) {
	needle := strings.ToLower(query)
	if needle == "" {
		return nil, nil
	}
	return r.scanDocuments(func(doc *core.Document) bool {
		return strings.Contains(strings.ToLower(doc.Title), needle) ||
			strings.Contains(strings.ToLower(doc.Content), needle)
	}, limit)
}

// DocumentsByTag retrieves documents carrying the exact tag via the tag index.
func (r *DocumentRepository) DocumentsByTag(ctx context.Context, tag string) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentTagKey(tag)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var docKey string
			if err := iter.Item().Value(func(val []byte) error {
				docKey = string(val)
				return nil
			}); err != nil {
				return err
			}

			doc, err := r.readDocument(tx, makeDocumentKey(docKey))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// UpdateEmbedding persists a new embedding for a document in place.
func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, key string, embedding []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		recordKey := makeDocumentKey(key)

		doc, err := r.readDocument(tx, recordKey)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		doc.Embedding = embedding
		if err := tx.Set(recordKey, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// TagCounts returns every tag with its document count.
func (r *DocumentRepository) TagCounts(ctx context.Context) ([]core.TagCount, error) {
	counts := make(map[string]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentTagPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			tag := tagFromIndexKey(iter.Item().Key())
			counts[tag]++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	results := make([]core.TagCount, 0, len(counts))
	for tag, count := range counts {
		results = append(results, core.TagCount{Tag: tag, Count: count})
	}
	slices.SortFunc(results, func(a, b core.TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	return results, nil
}

// Helper methods

// readDocument reads a document from the transaction.
// Returns nil, nil when the key does not exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// scanDocuments iterates every document record, keeping those the filter
// accepts, up to limit (0 means unlimited). Records iterate in key order.
func (r *DocumentRepository) scanDocuments(keep func(*core.Document) bool, limit int) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}

			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc != nil && keep(doc) {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}
