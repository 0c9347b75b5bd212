// Package reembed provides functionality for regenerating document
// embeddings with new or updated embedding models.
//
// This package supports batch processing of documents, a concurrent worker
// pool, progress tracking, retry logic with exponential backoff, and vector
// normalization to ensure compatibility with cosine similarity search.
package reembed
