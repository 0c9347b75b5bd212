// Package embed generates embedding vectors for knowledge base documents.
//
// The Service wraps an ai.Embedder and guarantees that every call produces a
// vector: when no model is configured, or the model call fails, a
// deterministic character-hash fallback vector of the configured dimension is
// returned instead. The fallback is stable across processes, so documents
// embedded without a model remain comparable to each other.
//
// The package also provides the vector math used by similarity search:
// cosine similarity, euclidean distance, and in-place normalization.
package embed
