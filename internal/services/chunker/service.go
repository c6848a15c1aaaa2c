package chunker

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// Service splits documents into windows of at most size tokens. Consecutive
// windows of one document share exactly overlap tokens.
type Service struct {
	tokenizer Tokenizer
	size      int
	overlap   int
	logger    arbor.ILogger
}

var _ interfaces.Chunker = (*Service)(nil)

// NewService creates a chunker. size must be positive and overlap must be
// smaller than size.
func NewService(size, overlap int, logger arbor.ILogger) (*Service, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	return &Service{
		size:    size,
		overlap: overlap,
		logger:  logger,
	}, nil
}

// Split chunks every document in order. Blank documents produce no chunks.
func (s *Service) Split(docs []models.ParsedDocument) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}

		for i, text := range s.window(s.tokenizer.Tokenize(doc.Text)) {
			metadata := models.CopyMetadata(doc.Metadata)
			metadata[models.MetaChunkIndex] = i

			chunks = append(chunks, models.Chunk{
				Text:     text,
				Metadata: metadata,
				Sequence: i,
			})
		}
	}

	s.logger.Debug().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Int("chunk_size", s.size).
		Int("chunk_overlap", s.overlap).
		Msg("Documents split into chunks")

	return chunks
}

// window slides a size-token window forward by size-overlap tokens until
// the end of the token stream is covered.
func (s *Service) window(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	step := s.size - s.overlap
	var out []string
	for start := 0; ; start += step {
		end := start + s.size
		if end >= len(tokens) {
			out = append(out, join(tokens[start:]))
			break
		}
		out = append(out, join(tokens[start:end]))
	}
	return out
}

// CountTokens returns the token count of text
func (s *Service) CountTokens(text string) int {
	return s.tokenizer.Count(text)
}

// Size returns the configured maximum chunk size in tokens
func (s *Service) Size() int {
	return s.size
}

// Overlap returns the configured overlap in tokens
func (s *Service) Overlap() int {
	return s.overlap
}
