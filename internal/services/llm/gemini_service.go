package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"google.golang.org/genai"
)

const (
	DefaultGeminiChatModel  = "gemini-2.0-flash"
	DefaultGeminiEmbedModel = "gemini-embedding-001"
	DefaultEmbeddingTimeout = 60 * time.Second
)

// GeminiService implements CompletionModel and EmbeddingProvider using the
// Gemini API through the genai SDK. One instance serves one role: it is built
// either from the response config or from the embedding config.
type GeminiService struct {
	client      *genai.Client
	chatModel   string
	embedModel  string
	dimension   int
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      arbor.ILogger
}

var (
	_ interfaces.CompletionModel   = (*GeminiService)(nil)
	_ interfaces.EmbeddingProvider = (*GeminiService)(nil)
)

func newGeminiClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google API key is required for the gemini provider (set via GOOGLE_API_KEY, RAGCHAIN_GEMINI_API_KEY, or api_key in config)")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return client, nil
}

// NewGeminiChatService creates a Gemini response model
func NewGeminiChatService(ctx context.Context, config *common.ResponseConfig, logger arbor.ILogger) (*GeminiService, error) {
	timeout := common.ParseDuration(config.Timeout, DefaultResponseTimeout)
	client, err := newGeminiClient(ctx, config.APIKey, config.BaseURL, timeout)
	if err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiChatModel
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Float64("temperature", config.Temperature).
		Msg("Gemini response service initialized")

	return &GeminiService{
		client:      client,
		chatModel:   model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// NewGeminiEmbeddingService creates a Gemini embedding provider
func NewGeminiEmbeddingService(ctx context.Context, config *common.EmbeddingConfig, logger arbor.ILogger) (*GeminiService, error) {
	timeout := common.ParseDuration(config.Timeout, DefaultEmbeddingTimeout)
	client, err := newGeminiClient(ctx, config.APIKey, config.BaseURL, timeout)
	if err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiEmbedModel
	}

	logger.Debug().
		Str("model", model).
		Int("dimension", config.Dimension).
		Dur("timeout", timeout).
		Msg("Gemini embedding service initialized")

	return &GeminiService{
		client:     client,
		embedModel: model,
		dimension:  config.Dimension,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Embed embeds texts in a single batchEmbedContents call. The result is
// parallel to texts.
func (s *GeminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedModel == "" {
		return nil, fmt.Errorf("gemini service is not configured for embeddings")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var embedConfig *genai.EmbedContentConfig
	if s.dimension > 0 {
		embedConfig = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(s.dimension)),
		}
	}

	startTime := time.Now()
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.embedModel, contents, embedConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding returned for input %d", i)
		}
		vectors[i] = embedding.Values
	}

	s.logger.Debug().
		Int("batch_size", len(texts)).
		Int("embedding_dim", len(vectors[0])).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini embedding batch completed")

	return vectors, nil
}

// EmbeddingModel returns the configured embedding model
func (s *GeminiService) EmbeddingModel() string {
	return s.embedModel
}

// Chat generates a completion for the conversation. The first system message
// becomes the system instruction.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if s.chatModel == "" {
		return "", fmt.Errorf("gemini service is not configured for chat")
	}

	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.temperature)),
	}
	if s.maxTokens > 0 {
		config.MaxOutputTokens = int32(s.maxTokens)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	startTime := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.chatModel, contents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", s.chatModel).
			Msg("Gemini chat completion failed")
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	// Use the first candidate that carries text
	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" && !part.Thought {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	s.logger.Debug().
		Str("model", s.chatModel).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini chat completion completed")

	return response.String(), nil
}

// Model returns the configured chat model
func (s *GeminiService) Model() string {
	return s.chatModel
}

// GetMode returns LLMModeCloud
func (s *GeminiService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}
