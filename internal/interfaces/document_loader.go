package interfaces

import (
	"context"

	"github.com/ternarybob/ragchain/internal/models"
)

// DocumentLoader discovers and parses documents in a directory
type DocumentLoader interface {
	// Scan lists the supported files in dir, sorted by path
	Scan(dir string) ([]models.DocumentFile, error)

	// Parse extracts the documents of one file. Failures are logged and
	// yield an empty slice.
	Parse(ctx context.Context, file models.DocumentFile) []models.ParsedDocument

	// LoadAll scans dir and parses every file, concatenating the results.
	// No files, or no parseable content, is an empty slice and not an error.
	LoadAll(ctx context.Context, dir string) ([]models.ParsedDocument, error)
}

// DocumentParser extracts text from one file type
type DocumentParser func(ctx context.Context, path string) ([]models.ParsedDocument, error)

// DocumentCatalog tracks the set of files that should be indexed
type DocumentCatalog interface {
	// Refresh rescans the directory and returns the tracked files
	Refresh() ([]models.DocumentFile, error)

	// Files returns the tracked files without touching the filesystem
	Files() []models.DocumentFile

	// Dir returns the watched directory
	Dir() string
}
