package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/ragchain/internal/models"
)

// ErrIngestionInProgress is returned when a run is dropped by the single-flight guard
var ErrIngestionInProgress = errors.New("ingestion already in progress")

// IngestionService rebuilds the vector index from the document directory
type IngestionService interface {
	// Run performs load, split, embed and rebuild. If another run is active
	// it returns ErrIngestionInProgress immediately with no side effects.
	Run(ctx context.Context) (models.IngestResult, error)

	// State returns the current state machine position
	State() models.PipelineState

	// LastResult returns the outcome of the most recent completed run
	LastResult() (models.IngestResult, bool)
}
