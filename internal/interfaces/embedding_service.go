package interfaces

import (
	"context"
)

// Embedder turns text into vectors for indexing and querying
type Embedder interface {
	// EmbedBatch embeds texts with one provider call per batch. The result is
	// parallel to texts. Any failed batch fails the whole call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne embeds a single query text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the embedding model identifier
	ModelName() string
}
