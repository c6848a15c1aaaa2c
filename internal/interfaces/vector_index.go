package interfaces

import (
	"context"

	"github.com/ternarybob/ragchain/internal/models"
)

// VectorIndex stores (vector, text, metadata) entries in one named collection
type VectorIndex interface {
	// Recreate drops the collection if present and creates it empty with the
	// given vector size and distance metric.
	Recreate(ctx context.Context, dimension int, metric models.DistanceMetric) error

	// Drop deletes the collection and all of its entries. Dropping a missing
	// collection is not an error.
	Drop(ctx context.Context) error

	// Upsert loads the complete entry set of an ingestion run.
	Upsert(ctx context.Context, entries []models.IndexEntry) error

	// Search returns at most k hits ordered by descending score. A missing or
	// empty collection yields an empty slice and no error.
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchHit, error)

	// Collection returns the collection name
	Collection() string

	// Close releases the underlying connection
	Close() error
}
