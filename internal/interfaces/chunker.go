package interfaces

import "github.com/ternarybob/ragchain/internal/models"

// Chunker splits parsed documents into overlapping token-bounded chunks
type Chunker interface {
	// Split is deterministic and copies each document's metadata onto every
	// chunk it produces.
	Split(docs []models.ParsedDocument) []models.Chunk

	// CountTokens returns the token count of text
	CountTokens(text string) int
}
