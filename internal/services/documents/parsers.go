package documents

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// ParseText reads a plain text file as one document. Invalid UTF-8 sequences
// are replaced rather than rejected.
func ParseText(ctx context.Context, path string) ([]models.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimPrefix(text, "\uFEFF")

	if strings.TrimSpace(text) == "" {
		return []models.ParsedDocument{}, nil
	}

	return []models.ParsedDocument{{Text: text, Metadata: map[string]interface{}{}}}, nil
}

// NewPDFParser returns a parser producing one document per PDF page that has
// a text layer. Each document carries its 1-based page number.
func NewPDFParser(extractor interfaces.PDFExtractor) interfaces.DocumentParser {
	return func(ctx context.Context, path string) ([]models.ParsedDocument, error) {
		pages, err := extractor.ExtractPages(ctx, path)
		if err != nil {
			return nil, err
		}

		docs := make([]models.ParsedDocument, 0, len(pages))
		for _, page := range pages {
			if strings.TrimSpace(page.Text) == "" {
				continue
			}
			docs = append(docs, models.ParsedDocument{
				Text: page.Text,
				Metadata: map[string]interface{}{
					models.MetaPage: page.PageNumber,
				},
			})
		}
		return docs, nil
	}
}
