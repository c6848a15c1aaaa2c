package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

const (
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIChatModel  = "gpt-4o-mini"
	DefaultOpenAIEmbedModel = "text-embedding-3-small"
)

// OpenAIService implements CompletionModel and EmbeddingProvider against the
// OpenAI REST API. Like GeminiService it is built for one role.
type OpenAIService struct {
	baseURL     string
	apiKey      string
	chatModel   string
	embedModel  string
	dimension   int
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      arbor.ILogger
}

var (
	_ interfaces.CompletionModel   = (*OpenAIService)(nil)
	_ interfaces.EmbeddingProvider = (*OpenAIService)(nil)
)

type openAIEmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func resolveOpenAIBaseURL(baseURL string) string {
	if baseURL == "" {
		return DefaultOpenAIBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// NewOpenAIChatService creates an OpenAI response model
func NewOpenAIChatService(config *common.ResponseConfig, logger arbor.ILogger) (*OpenAIService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for the openai response provider (set via OPENAI_API_KEY, RAGCHAIN_OPENAI_API_KEY, or response.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIChatModel
	}
	timeout := common.ParseDuration(config.Timeout, DefaultResponseTimeout)

	service := &OpenAIService{
		baseURL:     resolveOpenAIBaseURL(config.BaseURL),
		apiKey:      config.APIKey,
		chatModel:   model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}

	logger.Debug().
		Str("model", model).
		Str("base_url", service.baseURL).
		Dur("timeout", timeout).
		Msg("OpenAI response service initialized")

	return service, nil
}

// NewOpenAIEmbeddingService creates an OpenAI embedding provider
func NewOpenAIEmbeddingService(config *common.EmbeddingConfig, logger arbor.ILogger) (*OpenAIService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for the openai embedding provider (set via OPENAI_API_KEY, RAGCHAIN_OPENAI_API_KEY, or embedding.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIEmbedModel
	}
	timeout := common.ParseDuration(config.Timeout, DefaultEmbeddingTimeout)

	service := &OpenAIService{
		baseURL:    resolveOpenAIBaseURL(config.BaseURL),
		apiKey:     config.APIKey,
		embedModel: model,
		dimension:  config.Dimension,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	logger.Debug().
		Str("model", model).
		Str("base_url", service.baseURL).
		Int("dimension", config.Dimension).
		Msg("OpenAI embedding service initialized")

	return service, nil
}

// Embed embeds texts with one request. Results are reordered by the index the
// API reports so the output is parallel to texts.
func (s *OpenAIService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedModel == "" {
		return nil, fmt.Errorf("openai service is not configured for embeddings")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	startTime := time.Now()
	var result openAIEmbeddingResponse
	err := s.post(ctx, "/embeddings", openAIEmbeddingRequest{
		Model:      s.embedModel,
		Input:      texts,
		Dimensions: s.dimension,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(result.Data))
	}

	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	vectors := make([][]float32, len(texts))
	for i, item := range result.Data {
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned for input %d", item.Index)
		}
		vectors[i] = item.Embedding
	}

	s.logger.Debug().
		Int("batch_size", len(texts)).
		Int("embedding_dim", len(vectors[0])).
		Dur("duration", time.Since(startTime)).
		Msg("OpenAI embedding batch completed")

	return vectors, nil
}

// EmbeddingModel returns the configured embedding model
func (s *OpenAIService) EmbeddingModel() string {
	return s.embedModel
}

// Chat sends the conversation to the chat completions endpoint and returns
// the first choice.
func (s *OpenAIService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if s.chatModel == "" {
		return "", fmt.Errorf("openai service is not configured for chat")
	}

	openAIMessages, err := convertMessagesToOpenAI(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to OpenAI format: %w", err)
	}

	startTime := time.Now()
	var result openAIChatResponse
	err = s.post(ctx, "/chat/completions", openAIChatRequest{
		Model:       s.chatModel,
		Messages:    openAIMessages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}, &result)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", s.chatModel).
			Msg("OpenAI chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI API")
	}
	response := result.Choices[0].Message.Content

	s.logger.Debug().
		Str("model", s.chatModel).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("OpenAI chat completion completed")

	return response, nil
}

// Model returns the configured chat model
func (s *OpenAIService) Model() string {
	return s.chatModel
}

// GetMode returns LLMModeCloud
func (s *OpenAIService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

func (s *OpenAIService) post(ctx context.Context, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		message := strings.TrimSpace(string(data))
		var apiErr openAIErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
