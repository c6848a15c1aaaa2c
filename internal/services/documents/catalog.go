package documents

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// Catalog is the set of supported files in the document directory, keyed by
// absolute path. It is the source of truth for what should be indexed.
type Catalog struct {
	dir    string
	loader interfaces.DocumentLoader
	mu     sync.RWMutex
	files  map[string]models.DocumentFile
}

var _ interfaces.DocumentCatalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog for dir. Call Refresh to populate it.
func NewCatalog(dir string, loader interfaces.DocumentLoader) *Catalog {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Catalog{
		dir:    dir,
		loader: loader,
		files:  make(map[string]models.DocumentFile),
	}
}

// Refresh replaces the tracked set with a fresh scan of the directory
func (c *Catalog) Refresh() ([]models.DocumentFile, error) {
	scanned, err := c.loader.Scan(c.dir)
	if err != nil {
		return nil, err
	}

	files := make(map[string]models.DocumentFile, len(scanned))
	for _, f := range scanned {
		files[f.Path] = f
	}

	c.mu.Lock()
	c.files = files
	c.mu.Unlock()

	return scanned, nil
}

// Add tracks path if it has a supported extension. Returns false otherwise.
func (c *Catalog) Add(path string) bool {
	if !models.IsSupported(path) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = models.DocumentFile{
		Path:      path,
		Extension: models.ExtensionOf(path),
		LastSeen:  time.Now(),
	}
	return true
}

// Remove stops tracking path. Returns whether it was tracked.
func (c *Catalog) Remove(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.files[path]; !ok {
		return false
	}
	delete(c.files, path)
	return true
}

// Contains reports whether path is tracked
func (c *Catalog) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[path]
	return ok
}

// Files returns the tracked files sorted by path
func (c *Catalog) Files() []models.DocumentFile {
	c.mu.RLock()
	files := make([]models.DocumentFile, 0, len(c.files))
	for _, f := range c.files {
		files = append(files, f)
	}
	c.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// Dir returns the absolute document directory
func (c *Catalog) Dir() string {
	return c.dir
}
