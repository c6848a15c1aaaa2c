package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/ragchain/internal/models"
)

// ErrEmptyModelOutput is returned when a model produces no usable text
var ErrEmptyModelOutput = errors.New("model returned empty output")

// InferenceEngine answers a query by chaining retrieval, a reasoning model
// and a response model.
type InferenceEngine interface {
	// Process runs embed, search, reasoning and response in sequence. The
	// first failing stage aborts the call.
	Process(ctx context.Context, query string, reasoningModel string, k int) (*models.QueryResult, error)

	// Models returns the reasoning models available and the response model
	Models(ctx context.Context) (*models.ModelCatalog, error)

	// Search embeds query and returns the k nearest chunks
	Search(ctx context.Context, query string, k int) ([]models.SearchHit, error)
}
