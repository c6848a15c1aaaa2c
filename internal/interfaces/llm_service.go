package interfaces

import (
	"context"
)

// LLMMode represents where a language model runs
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeOffline indicates the service uses a local model server (Ollama)
	LLMModeOffline LLMMode = "offline"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// GenerateRequest is a single-shot prompt for a locally served model
type GenerateRequest struct {
	Model  string
	Prompt string
	System string
}

// ReasoningModel is the first model in the inference chain. It is served by
// a local model server and produces a reasoning trace for a prompt.
type ReasoningModel interface {
	// Generate runs the prompt against the named model and returns the raw
	// output. Transport errors and non-success statuses are retried a bounded
	// number of times with a fixed delay before an error is returned.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// ListModels returns the names of every model installed on the server.
	ListModels(ctx context.Context) ([]string, error)

	// GetMode reports where the model runs.
	GetMode() LLMMode
}

// CompletionModel is the second model in the inference chain. It answers a
// task from a conversation and is not retried.
type CompletionModel interface {
	// Chat generates a completion for the conversation. System messages are
	// passed to the provider as its system prompt.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Model returns the provider model identifier.
	Model() string

	// GetMode reports where the model runs.
	GetMode() LLMMode
}

// EmbeddingProvider computes embeddings for a batch of texts in one call.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbeddingModel returns the provider embedding model identifier.
	EmbeddingModel() string
}
