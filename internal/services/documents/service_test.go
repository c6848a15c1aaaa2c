package documents

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/ternarybob/ragchain/internal/services/pdf"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Board minutes</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Revenue </w:t></w:r><w:r><w:t>grew.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Item</w:t><w:tab/><w:t>Value</w:t><w:br/><w:t>Next</w:t></w:r></w:p>
  </w:body>
</w:document>`

func newTestLoader() *Service {
	logger := arbor.NewLogger()
	return NewService(pdf.NewExtractor(logger), logger)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeDOCX(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	part, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)

	part, err = w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func writePDF(t *testing.T, path string, pages ...string) {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Arial", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.Cell(0, 10, text)
	}
	require.NoError(t, doc.OutputFileAndClose(path))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "a.PDF"), "a")
	writeFile(t, filepath.Join(dir, "c.docx"), "c")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0755))

	files, err := newTestLoader().Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "a.PDF", files[0].Name())
	assert.Equal(t, models.ExtensionPDF, files[0].Extension)
	assert.Equal(t, "b.txt", files[1].Name())
	assert.Equal(t, "c.docx", files[2].Name())
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
		assert.False(t, f.LastSeen.IsZero())
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	files, err := newTestLoader().Scan(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoadAll_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.txt"), "Sales rose 10% in Q1. Costs fell 5%.")
	writeDOCX(t, filepath.Join(dir, "minutes.docx"), docxBody)
	writePDF(t, filepath.Join(dir, "deck.pdf"), "Slide one", "Slide two")

	docs, err := newTestLoader().LoadAll(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 4)

	byName := map[string][]models.ParsedDocument{}
	for _, doc := range docs {
		name := doc.Metadata[models.MetaFileName].(string)
		byName[name] = append(byName[name], doc)
		assert.Equal(t, filepath.Join(dir, name), doc.Metadata[models.MetaSource])
	}

	require.Len(t, byName["report.txt"], 1)
	assert.Equal(t, "Sales rose 10% in Q1. Costs fell 5%.", byName["report.txt"][0].Text)
	assert.Equal(t, models.ExtensionTXT, byName["report.txt"][0].Metadata[models.MetaFileType])

	require.Len(t, byName["minutes.docx"], 1)
	assert.Equal(t, "Board minutes\nRevenue grew.\nItem\tValue\nNext", byName["minutes.docx"][0].Text)

	require.Len(t, byName["deck.pdf"], 2)
	assert.Equal(t, "Slide one", byName["deck.pdf"][0].Text)
	assert.Equal(t, 1, byName["deck.pdf"][0].Metadata[models.MetaPage])
	assert.Equal(t, "Slide two", byName["deck.pdf"][1].Text)
	assert.Equal(t, 2, byName["deck.pdf"][1].Metadata[models.MetaPage])
}

func TestLoadAll_FailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.pdf"), "this is not a pdf")
	writeFile(t, filepath.Join(dir, "broken.docx"), "neither is this a zip")
	writeFile(t, filepath.Join(dir, "good.txt"), "still loaded")

	docs, err := newTestLoader().LoadAll(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "still loaded", docs[0].Text)
}

func TestLoadAll_NoDocuments(t *testing.T) {
	loader := newTestLoader()

	docs, err := loader.LoadAll(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, docs)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.txt"), "   \n")
	writeFile(t, filepath.Join(dir, "bad.pdf"), "garbage")
	docs, err = loader.LoadAll(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadAll_CustomParser(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "first")
	writeFile(t, filepath.Join(dir, "b.txt"), "second")

	loader := newTestLoader()
	loader.RegisterParser(models.ExtensionTXT, func(ctx context.Context, path string) ([]models.ParsedDocument, error) {
		if strings.HasSuffix(path, "a.txt") {
			return nil, errors.New("parser exploded")
		}
		return ParseText(ctx, path)
	})

	docs, err := loader.LoadAll(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Text)
}

func TestLoadAll_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "first")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader().LoadAll(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseText_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	writeFile(t, path, "\uFEFFcaf\xe9 au lait")

	docs, err := ParseText(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "caf\uFFFD au lait", docs[0].Text)
}

func TestParseDOCX_MissingBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, err = ParseDOCX(context.Background(), path)
	assert.Error(t, err)
}
