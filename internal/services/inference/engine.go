package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// DefaultK is the number of chunks retrieved when the caller does not say
const DefaultK = 4

// Stage names a step of the inference chain
type Stage string

const (
	StageEmbed     Stage = "embed"
	StageSearch    Stage = "search"
	StageReasoning Stage = "reasoning"
	StageResponse  Stage = "response"
)

// StageError is the failure of one step of Process
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config holds the engine settings that come from the reasoning section
type Config struct {
	DefaultReasoningModel string
	ModelFilter           string
}

// Engine implements InferenceEngine. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	embedder   interfaces.Embedder
	index      interfaces.VectorIndex
	reasoning  interfaces.ReasoningModel
	completion interfaces.CompletionModel
	config     Config
	logger     arbor.ILogger
}

var _ interfaces.InferenceEngine = (*Engine)(nil)

// NewEngine creates the chained inference engine
func NewEngine(
	embedder interfaces.Embedder,
	index interfaces.VectorIndex,
	reasoning interfaces.ReasoningModel,
	completion interfaces.CompletionModel,
	config Config,
	logger arbor.ILogger,
) *Engine {
	return &Engine{
		embedder:   embedder,
		index:      index,
		reasoning:  reasoning,
		completion: completion,
		config:     config,
		logger:     logger,
	}
}

// Search embeds query and returns at most k nearest chunks
func (e *Engine) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	if k <= 0 {
		k = DefaultK
	}

	vector, err := e.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, &StageError{Stage: StageEmbed, Err: err}
	}

	hits, err := e.index.Search(ctx, vector, k)
	if err != nil {
		return nil, &StageError{Stage: StageSearch, Err: err}
	}
	return hits, nil
}

// Process answers query by retrieval, reasoning and response, in that order.
// The response model sees the reasoning trace and the query but never the
// retrieved context.
func (e *Engine) Process(ctx context.Context, query string, reasoningModel string, k int) (*models.QueryResult, error) {
	if reasoningModel == "" {
		reasoningModel = e.config.DefaultReasoningModel
	}

	start := time.Now()
	e.logger.Debug().
		Str("reasoning_model", reasoningModel).
		Str("response_model", e.completion.Model()).
		Int("k", k).
		Msg("Processing query")

	hits, err := e.Search(ctx, query, k)
	if err != nil {
		return nil, e.fail(err)
	}
	contextText := JoinContext(hits)

	reasoningStart := time.Now()
	raw, err := e.reasoning.Generate(ctx, interfaces.GenerateRequest{
		Model:  reasoningModel,
		Prompt: BuildReasoningPrompt(query, contextText),
	})
	if err != nil {
		return nil, e.fail(&StageError{Stage: StageReasoning, Err: err})
	}
	reasoning := ExtractReasoning(raw)
	if reasoning == "" {
		return nil, e.fail(&StageError{
			Stage: StageReasoning,
			Err:   fmt.Errorf("%w: %s", interfaces.ErrEmptyModelOutput, reasoningModel),
		})
	}
	reasoningDuration := time.Since(reasoningStart)

	responseStart := time.Now()
	response, err := e.completion.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: ResponseSystemPrompt},
		{Role: "user", Content: BuildResponsePrompt(query, reasoning)},
	})
	if err != nil {
		return nil, e.fail(&StageError{Stage: StageResponse, Err: err})
	}
	if strings.TrimSpace(response) == "" {
		return nil, e.fail(&StageError{
			Stage: StageResponse,
			Err:   fmt.Errorf("%w: %s", interfaces.ErrEmptyModelOutput, e.completion.Model()),
		})
	}

	e.logger.Info().
		Str("reasoning_model", reasoningModel).
		Int("hits", len(hits)).
		Int("reasoning_length", len(reasoning)).
		Int("response_length", len(response)).
		Dur("reasoning_duration", reasoningDuration).
		Dur("response_duration", time.Since(responseStart)).
		Dur("duration", time.Since(start)).
		Msg("Query processed")

	return &models.QueryResult{
		Context:   contextText,
		Reasoning: reasoning,
		Response:  response,
	}, nil
}

// Models lists the reasoning models installed on the model server that match
// the configured filter, and the response model.
func (e *Engine) Models(ctx context.Context) (*models.ModelCatalog, error) {
	responseModel := e.completion.Model()

	installed, err := e.reasoning.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(e.config.ModelFilter)
	reasoningIDs := make([]string, 0, len(installed))
	for _, name := range installed {
		if filter == "" || strings.Contains(strings.ToLower(name), filter) {
			reasoningIDs = append(reasoningIDs, name)
		}
	}

	all := make([]string, 0, len(installed)+1)
	all = append(all, installed...)
	all = append(all, responseModel)

	return &models.ModelCatalog{
		ReasoningModelIDs: reasoningIDs,
		ResponseModelID:   responseModel,
		All:               all,
	}, nil
}

func (e *Engine) fail(err error) error {
	e.logger.Error().Err(err).Msg("Query failed")
	return err
}

// JoinContext concatenates hit texts, separated by a blank line
func JoinContext(hits []models.SearchHit) string {
	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}
	return strings.Join(texts, "\n\n")
}
