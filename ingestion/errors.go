package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbeddingServiceRequired is returned when an embedding service is not provided.
	ErrEmbeddingServiceRequired = errors.New("embedding service required")
)
