package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

// DefaultBatchSize is the number of texts sent per provider call
const DefaultBatchSize = 512

// Service implements Embedder on top of a batch embedding provider
type Service struct {
	provider  interfaces.EmbeddingProvider
	batchSize int
	logger    arbor.ILogger
}

var _ interfaces.Embedder = (*Service)(nil)

// NewService creates a new embedding service
func NewService(provider interfaces.EmbeddingProvider, batchSize int, logger arbor.ILogger) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		provider:  provider,
		batchSize: batchSize,
		logger:    logger,
	}
}

// EmbedBatch embeds texts in batches of at most batchSize. The output is
// parallel to texts and every vector has the same dimension.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors := make([][]float32, 0, len(texts))
	batches := 0
	for offset := 0; offset < len(texts); offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(offset+s.batchSize, len(texts))
		batch, err := s.provider.Embed(ctx, texts[offset:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d (texts %d-%d): %w", batches+1, offset, end-1, err)
		}
		if len(batch) != end-offset {
			return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(batch), end-offset)
		}

		vectors = append(vectors, batch...)
		batches++
	}

	dimension := len(vectors[0])
	for i, vector := range vectors {
		if len(vector) == 0 {
			return nil, fmt.Errorf("provider returned an empty embedding for text %d", i)
		}
		if len(vector) != dimension {
			return nil, fmt.Errorf("embedding dimension mismatch at text %d: expected %d, got %d", i, dimension, len(vector))
		}
	}

	s.logger.Debug().
		Str("model", s.provider.EmbeddingModel()).
		Int("texts", len(texts)).
		Int("batches", batches).
		Int("embedding_dim", dimension).
		Dur("duration", time.Since(start)).
		Msg("Generated embeddings")

	return vectors, nil
}

// EmbedOne embeds a single query text
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vectors, err := s.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("provider returned no embedding")
	}
	return vectors[0], nil
}

// ModelName returns the embedding model identifier
func (s *Service) ModelName() string {
	return s.provider.EmbeddingModel()
}
