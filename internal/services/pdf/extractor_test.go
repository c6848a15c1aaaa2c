package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// writeTestPDF renders one page per entry of pages with uncompressed streams
func writeTestPDF(t *testing.T, path string, pages ...[]string) {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Arial", "", 12)
	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.Cell(0, 10, line)
			doc.Ln(10)
		}
	}
	require.NoError(t, doc.OutputFileAndClose(path))
}

func TestExtractor_ExtractPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	writeTestPDF(t, path,
		[]string{"Quarterly report", "Sales rose 10 percent"},
		[]string{},
		[]string{"Costs fell 5 percent"},
	)

	extractor := NewExtractor(arbor.NewLogger())

	count, err := extractor.PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pages, err := extractor.ExtractPages(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Contains(t, pages[0].Text, "Quarterly report")
	assert.Contains(t, pages[0].Text, "Sales rose 10 percent")

	assert.Equal(t, 2, pages[1].PageNumber)
	assert.Empty(t, pages[1].Text)

	assert.Equal(t, 3, pages[2].PageNumber)
	assert.Equal(t, "Costs fell 5 percent", pages[2].Text)
}

func TestExtractor_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	extractor := NewExtractor(arbor.NewLogger())
	_, err := extractor.ExtractPages(context.Background(), path)
	assert.Error(t, err)
}
