// Package ingestion provides pipeline orchestration for bulk-loading documents.
//
// The Pipeline type manages the ingestion workflow for knowledge documents:
//   - Validating and adding documents to storage
//   - Generating embeddings asynchronously
//
// Embedding is performed concurrently using a worker pool to maximize
// throughput. Errors during async processing are logged but do not fail the
// ingestion operation; call Wait before Release to let in-flight work finish.
package ingestion
