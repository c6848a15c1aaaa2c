// -----------------------------------------------------------------------
// PDF Extractor Interface - Extract text content from PDF documents
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
)

// PDFPageContent represents extracted content from a single PDF page
type PDFPageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PDFExtractor extracts text from PDF files on disk
type PDFExtractor interface {
	// ExtractPages returns the text of every page in page order (1-indexed).
	// Pages without a text layer have empty Text.
	ExtractPages(ctx context.Context, path string) ([]PDFPageContent, error)

	// PageCount returns the number of pages without extracting text
	PageCount(path string) (int, error)
}
