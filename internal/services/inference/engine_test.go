package inference

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, m.err
}

func (m *mockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

type mockIndex struct {
	hits  []models.SearchHit
	err   error
	lastK int
}

func (m *mockIndex) Recreate(ctx context.Context, dimension int, metric models.DistanceMetric) error {
	return nil
}

func (m *mockIndex) Drop(ctx context.Context) error { return nil }

func (m *mockIndex) Upsert(ctx context.Context, entries []models.IndexEntry) error { return nil }

func (m *mockIndex) Search(ctx context.Context, vector []float32, k int) ([]models.SearchHit, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockIndex) Collection() string { return "test" }
func (m *mockIndex) Close() error { return nil }

type mockReasoning struct {
	output    string
	err       error
	installed []string
	listErr   error
	requests  []interfaces.GenerateRequest
}

func (m *mockReasoning) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	m.requests = append(m.requests, req)
	return m.output, m.err
}

func (m *mockReasoning) ListModels(ctx context.Context) ([]string, error) {
	return m.installed, m.listErr
}

func (m *mockReasoning) GetMode() interfaces.LLMMode { return interfaces.LLMModeOffline }

type mockCompletion struct {
	output        string
	err           error
	conversations [][]interfaces.Message
}

func (m *mockCompletion) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	m.conversations = append(m.conversations, messages)
	return m.output, m.err
}

func (m *mockCompletion) Model() string { return "gpt-4o-mini" }
func (m *mockCompletion) GetMode() interfaces.LLMMode { return interfaces.LLMModeCloud }

type engineFixture struct {
	embedder   *mockEmbedder
	index      *mockIndex
	reasoning  *mockReasoning
	completion *mockCompletion
	engine     *Engine
}

func newFixture() *engineFixture {
	f := &engineFixture{
		embedder: &mockEmbedder{},
		index: &mockIndex{hits: []models.SearchHit{
			{Text: "Sales rose 10% in Q1.", Score: 0.9},
			{Text: "Costs fell 5%.", Score: 0.8},
		}},
		reasoning:  &mockReasoning{output: "Reasoning: Compare the two figures.\nAnswer: 15 points"},
		completion: &mockCompletion{output: "Margins widened."},
	}
	f.engine = NewEngine(f.embedder, f.index, f.reasoning, f.completion, Config{
		DefaultReasoningModel: "deepseek",
		ModelFilter:           "deepseek",
	}, arbor.NewLogger())
	return f
}

func TestProcess(t *testing.T) {
	f := newFixture()

	result, err := f.engine.Process(context.Background(), "How did margins move?", "deepseek-r1:8b", 2)
	require.NoError(t, err)

	assert.Equal(t, "Sales rose 10% in Q1.\n\nCosts fell 5%.", result.Context)
	assert.Equal(t, "Compare the two figures.", result.Reasoning)
	assert.Equal(t, "Margins widened.", result.Response)
	assert.Equal(t, 2, f.index.lastK)

	require.Len(t, f.reasoning.requests, 1)
	req := f.reasoning.requests[0]
	assert.Equal(t, "deepseek-r1:8b", req.Model)
	assert.Equal(t, BuildReasoningPrompt("How did margins move?", result.Context), req.Prompt)

	require.Len(t, f.completion.conversations, 1)
	conversation := f.completion.conversations[0]
	require.Len(t, conversation, 2)
	assert.Equal(t, "system", conversation[0].Role)
	assert.Equal(t, ResponseSystemPrompt, conversation[0].Content)
	assert.Equal(t, BuildResponsePrompt("How did margins move?", "Compare the two figures."), conversation[1].Content)
}

func TestProcess_ResponseNeverSeesContext(t *testing.T) {
	f := newFixture()

	_, err := f.engine.Process(context.Background(), "q", "", 4)
	require.NoError(t, err)

	for _, msg := range f.completion.conversations[0] {
		assert.NotContains(t, msg.Content, "Sales rose")
		assert.NotContains(t, msg.Content, "Costs fell")
		assert.NotContains(t, msg.Content, "15 points")
	}
}

func TestProcess_DefaultsModelAndK(t *testing.T) {
	f := newFixture()

	_, err := f.engine.Process(context.Background(), "q", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", f.reasoning.requests[0].Model)
	assert.Equal(t, DefaultK, f.index.lastK)
}

func TestProcess_EmptyIndexIsNotAnError(t *testing.T) {
	f := newFixture()
	f.index.hits = nil

	first, err := f.engine.Process(context.Background(), "q", "", 4)
	require.NoError(t, err)
	assert.Equal(t, "", first.Context)

	second, err := f.engine.Process(context.Background(), "q", "", 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, f.reasoning.requests[0], f.reasoning.requests[1])
	assert.True(t, strings.HasPrefix(f.reasoning.requests[0].Prompt, "Context information:\n\n"))
}

func TestProcess_StageFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(f *engineFixture)
		stage   Stage
		target  error
		reached int // number of completion calls
	}{
		{
			name:   "embed",
			setup:  func(f *engineFixture) { f.embedder.err = boom },
			stage:  StageEmbed,
			target: boom,
		},
		{
			name:   "search",
			setup:  func(f *engineFixture) { f.index.err = boom },
			stage:  StageSearch,
			target: boom,
		},
		{
			name:   "reasoning call",
			setup:  func(f *engineFixture) { f.reasoning.err = boom },
			stage:  StageReasoning,
			target: boom,
		},
		{
			name:   "empty reasoning",
			setup:  func(f *engineFixture) { f.reasoning.output = "<think>\n</think>\n" },
			stage:  StageReasoning,
			target: interfaces.ErrEmptyModelOutput,
		},
		{
			name:    "response call",
			setup:   func(f *engineFixture) { f.completion.err = boom },
			stage:   StageResponse,
			target:  boom,
			reached: 1,
		},
		{
			name:    "empty response",
			setup:   func(f *engineFixture) { f.completion.output = "  \n" },
			stage:   StageResponse,
			target:  interfaces.ErrEmptyModelOutput,
			reached: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			result, err := f.engine.Process(context.Background(), "q", "", 4)
			assert.Nil(t, result)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, strings.HasPrefix(err.Error(), string(tt.stage)+": "))
			assert.Len(t, f.completion.conversations, tt.reached)
		})
	}
}

func TestSearch(t *testing.T) {
	f := newFixture()

	hits, err := f.engine.Search(context.Background(), "sales", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Sales rose 10% in Q1.", hits[0].Text)
	assert.Empty(t, f.reasoning.requests)
}

func TestModels(t *testing.T) {
	f := newFixture()
	f.reasoning.installed = []string{"deepseek-r1:8b", "llama3:latest", "DeepSeek-Coder"}

	catalog, err := f.engine.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"deepseek-r1:8b", "DeepSeek-Coder"}, catalog.ReasoningModelIDs)
	assert.Equal(t, "gpt-4o-mini", catalog.ResponseModelID)
	assert.Equal(t, []string{"deepseek-r1:8b", "llama3:latest", "DeepSeek-Coder", "gpt-4o-mini"}, catalog.All)
}

func TestModels_Error(t *testing.T) {
	f := newFixture()
	f.reasoning.listErr = errors.New("connection refused")

	_, err := f.engine.Models(context.Background())
	assert.Error(t, err)
}
