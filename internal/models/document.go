package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Supported document extensions (lowercase, without the dot)
const (
	ExtensionPDF  = "pdf"
	ExtensionDOCX = "docx"
	ExtensionTXT  = "txt"
)

// SupportedExtensions lists every extension the loader can parse
var SupportedExtensions = []string{ExtensionPDF, ExtensionDOCX, ExtensionTXT}

// Metadata keys set by the loader and chunker
const (
	MetaSource     = "source"      // absolute path of the originating file
	MetaFileName   = "file_name"   // base name of the originating file
	MetaFileType   = "file_type"   // pdf, docx or txt
	MetaPage       = "page"        // 1-based page number (pdf only)
	MetaChunkIndex = "chunk_index" // position of the chunk within its document
)

// DocumentFile is a supported file discovered in the document directory
type DocumentFile struct {
	Path      string    `json:"path"`
	Extension string    `json:"extension"` // pdf, docx, txt
	LastSeen  time.Time `json:"last_seen"`
}

// Name returns the base file name
func (f DocumentFile) Name() string {
	return filepath.Base(f.Path)
}

// ExtensionOf returns the normalised extension for path (lowercase, no dot)
func ExtensionOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// IsSupported reports whether path has a supported document extension
func IsSupported(path string) bool {
	ext := ExtensionOf(path)
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ParsedDocument is the text of one logical document produced by a parser.
// A parser may split one file into several (e.g. one per PDF page).
type ParsedDocument struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Chunk is a token-bounded slice of a ParsedDocument
type Chunk struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Sequence int                    `json:"sequence"` // index within the parent document
}

// CopyMetadata returns a shallow copy of m, never nil
func CopyMetadata(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
