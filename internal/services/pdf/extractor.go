// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

// contentFilePattern matches the per-page files written by api.ExtractContentFile
var contentFilePattern = regexp.MustCompile(`_Content_page_(\d+)`)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{
		logger:  logger,
		tempDir: os.TempDir(),
	}
}

// PageCount reads the document structure and returns its page count
func (e *Extractor) PageCount(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ExtractPages extracts text content by page from a PDF.
// pdfcpu doesn't have direct text extraction, so the decoded content stream
// of each page is extracted and its text-showing operators are interpreted.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]interfaces.PDFPageContent, error) {
	pageCount, err := e.PageCount(path)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp(e.tempDir, "ragchain-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// Read extracted content files
	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction directory: %w", err)
	}

	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		match := contentFilePattern.FindStringSubmatch(file.Name())
		if match == nil {
			continue
		}
		pageNum, _ := strconv.Atoi(match[1])

		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			e.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to read extracted page content")
			continue
		}
		pageTexts[pageNum] = DecodeContentStream(content)
	}

	pages := make([]interfaces.PDFPageContent, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}

	e.logger.Debug().
		Str("path", path).
		Int("page_count", pageCount).
		Int("pages_with_content", len(pageTexts)).
		Msg("Extracted PDF pages")

	return pages, nil
}
