package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// Service implements DocumentLoader over a registry of per-extension parsers
type Service struct {
	parsers map[string]interfaces.DocumentParser
	logger  arbor.ILogger
}

var _ interfaces.DocumentLoader = (*Service)(nil)

// NewService creates a loader with the PDF, DOCX and TXT parsers registered
func NewService(pdfExtractor interfaces.PDFExtractor, logger arbor.ILogger) *Service {
	s := &Service{
		parsers: make(map[string]interfaces.DocumentParser),
		logger:  logger,
	}

	s.RegisterParser(models.ExtensionPDF, NewPDFParser(pdfExtractor))
	s.RegisterParser(models.ExtensionDOCX, ParseDOCX)
	s.RegisterParser(models.ExtensionTXT, ParseText)

	return s
}

// RegisterParser sets the parser for ext, replacing any existing one
func (s *Service) RegisterParser(ext string, parser interfaces.DocumentParser) {
	s.parsers[ext] = parser
}

// Scan lists supported files directly inside dir. A missing directory is
// reported as empty.
func (s *Service) Scan(dir string) ([]models.DocumentFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Str("dir", absDir).Msg("Document directory does not exist")
			return []models.DocumentFile{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", absDir, err)
	}

	now := time.Now()
	files := make([]models.DocumentFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !models.IsSupported(entry.Name()) {
			continue
		}
		files = append(files, models.DocumentFile{
			Path:      filepath.Join(absDir, entry.Name()),
			Extension: models.ExtensionOf(entry.Name()),
			LastSeen:  now,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Parse runs the parser registered for the file's extension. Any failure is
// logged and yields no documents.
func (s *Service) Parse(ctx context.Context, file models.DocumentFile) []models.ParsedDocument {
	parser, ok := s.parsers[file.Extension]
	if !ok {
		s.logger.Warn().Str("file", file.Path).Str("extension", file.Extension).Msg("No parser registered for extension")
		return []models.ParsedDocument{}
	}

	start := time.Now()
	docs, err := parser(ctx, file.Path)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", file.Path).Msg("Failed to parse document, skipping")
		return []models.ParsedDocument{}
	}

	for i := range docs {
		metadata := models.CopyMetadata(docs[i].Metadata)
		metadata[models.MetaSource] = file.Path
		metadata[models.MetaFileName] = file.Name()
		metadata[models.MetaFileType] = file.Extension
		docs[i].Metadata = metadata
	}

	s.logger.Debug().
		Str("file", file.Name()).
		Int("documents", len(docs)).
		Dur("duration", time.Since(start)).
		Msg("Parsed document")

	return docs
}

// LoadAll parses every supported file in dir. Parse failures are isolated to
// their file, so the result holds whatever subset succeeded.
func (s *Service) LoadAll(ctx context.Context, dir string) ([]models.ParsedDocument, error) {
	files, err := s.Scan(dir)
	if err != nil {
		return nil, err
	}

	docs := []models.ParsedDocument{}
	failed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed := s.Parse(ctx, file)
		if len(parsed) == 0 {
			failed++
		}
		docs = append(docs, parsed...)
	}

	s.logger.Info().
		Str("dir", dir).
		Int("files", len(files)).
		Int("files_without_content", failed).
		Int("documents", len(docs)).
		Msg("Documents loaded")

	return docs, nil
}
