package storage

import (
	"context"

	"github.com/mimir-kb/mimir/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing knowledge documents.
type DocumentRepository interface {
	Repository
	// AddDocument stores a new document and returns its key.
	// For documents with an empty key, generates a content-addressed key.
	// Sets creation/update timestamps and version if not already set.
	// Returns ErrDuplicateKey if a document with the key already exists.
	AddDocument(ctx context.Context, doc *core.Document) (string, error)

	// GetDocument retrieves a document by key.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, key string) (*core.Document, error)

	// UpdateDocument replaces an existing document, bumping its version and
	// update timestamp. A nil Embedding on the incoming document preserves
	// the stored embedding. Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) error

	// DeleteDocument removes a document and its tag index entries.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, key string) error

	// AllDocuments retrieves every document in the corpus.
	AllDocuments(ctx context.Context) ([]*core.Document, error)

	// DocumentsWithEmbeddings retrieves every document carrying a non-empty
	// embedding vector.
	DocumentsWithEmbeddings(ctx context.Context) ([]*core.Document, error)

	// DocumentsByTag retrieves documents carrying the exact tag.
	DocumentsByTag(ctx context.Context, tag string) ([]*core.Document, error)

	// SearchContent retrieves up to limit documents whose title or content
	// contains the query, case-insensitive.
	SearchContent(ctx context.Context, query string, limit int) ([]*core.Document, error)

	// UpdateEmbedding persists a new embedding for a document without
	// touching its other fields or bumping its version.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateEmbedding(ctx context.Context, key string, embedding []float32) error

	// SimilaritySearch asks the store to score every embedded document
	// against the query vector using the named metric ("cosine").
	// Returns documents with score >= minScore, score-descending, up to limit.
	// Returns ErrUnsupportedMetric for metrics the store cannot compute.
	SimilaritySearch(ctx context.Context, vector []float32, metric string, minScore float64, limit int) ([]core.ScoredDocument, error)

	// TagCounts returns every tag in the corpus with its document count,
	// count-descending with ties broken alphabetically.
	TagCounts(ctx context.Context) ([]core.TagCount, error)
}

// TopicRepository provides operations for managing topics.
type TopicRepository interface {
	Repository
	// AddTopic stores a new topic and returns its key.
	// For topics with an empty key, generates a content-addressed key.
	// Returns ErrDuplicateKey if a topic with the key already exists.
	AddTopic(ctx context.Context, topic *core.Topic) (string, error)

	// GetTopic retrieves a topic by key.
	// Returns ErrNotFound if the topic doesn't exist.
	GetTopic(ctx context.Context, key string) (*core.Topic, error)

	// UpdateTopic replaces an existing topic.
	// Returns ErrNotFound if the topic doesn't exist.
	UpdateTopic(ctx context.Context, topic *core.Topic) error

	// DeleteTopic removes a topic.
	// Returns ErrNotFound if the topic doesn't exist.
	DeleteTopic(ctx context.Context, key string) error

	// ListTopics retrieves every topic, ordered by name ascending.
	ListTopics(ctx context.Context) ([]*core.Topic, error)
}

// RelationshipRepository provides operations for managing relationships
// between documents and topics.
type RelationshipRepository interface {
	Repository
	// AddRelationship stores a new relationship and returns its key.
	// For relationships with an empty key, generates a content-addressed
	// key from (From, To, Type), so re-linking the same pair is idempotent.
	AddRelationship(ctx context.Context, rel *core.Relationship) (string, error)

	// DeleteRelationship removes a relationship by key.
	// Returns ErrNotFound if the relationship doesn't exist.
	DeleteRelationship(ctx context.Context, key string) error

	// DeleteRelationshipsFor removes every relationship whose From or To
	// endpoint equals the given qualified reference.
	DeleteRelationshipsFor(ctx context.Context, ref string) error

	// RelationshipsFrom retrieves relationships originating at the given
	// reference. An empty relType matches any type.
	RelationshipsFrom(ctx context.Context, ref string, relType string) ([]*core.Relationship, error)

	// RelationshipsTo retrieves relationships pointing at the given
	// reference. An empty relType matches any type.
	RelationshipsTo(ctx context.Context, ref string, relType string) ([]*core.Relationship, error)
}
