package ai

import "context"

// Embedder turns text into vector embeddings for similarity search.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText embeds a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of texts, returning vectors in input order.
	// Prefer this over repeated EmbedText calls when embedding many texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
