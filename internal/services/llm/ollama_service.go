package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

// DefaultOllamaTimeout bounds a single generate call. Reasoning models
// routinely take minutes on local hardware.
const DefaultOllamaTimeout = 5 * time.Minute

// OllamaService implements ReasoningModel against a local Ollama server
type OllamaService struct {
	baseURL    string
	options    ollamaOptions
	retry      RetryPolicy
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.ReasoningModel = (*OllamaService)(nil)

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// APIError represents a non-success response from a model server.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NewOllamaService creates the reasoning model client from config
func NewOllamaService(config *common.ReasoningConfig, logger arbor.ILogger) (*OllamaService, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("reasoning base_url is required")
	}

	policy := RetryPolicy{
		MaxAttempts: config.MaxRetries,
		Delay:       common.ParseDuration(config.RetryDelay, DefaultRetryDelay),
	}
	timeout := common.ParseDuration(config.Timeout, DefaultOllamaTimeout)

	service := &OllamaService{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		options: ollamaOptions{
			Temperature: config.Temperature,
			TopP:        config.TopP,
			NumPredict:  config.MaxTokens,
		},
		retry:      policy,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	logger.Debug().
		Str("base_url", service.baseURL).
		Int("max_attempts", policy.MaxAttempts).
		Dur("retry_delay", policy.Delay).
		Dur("timeout", timeout).
		Msg("Ollama reasoning service initialized")

	return service, nil
}

// Generate runs a non-streaming completion, retrying transport failures and
// non-success statuses with a fixed delay.
func (s *OllamaService) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	if req.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	body := ollamaGenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  false,
		Options: s.options,
	}

	startTime := time.Now()
	var result ollamaGenerateResponse
	err := retry(ctx, s.logger, s.retry, "Ollama generate", func(ctx context.Context) error {
		return s.do(ctx, http.MethodPost, "/api/generate", body, &result)
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", req.Model).
			Msg("Reasoning model call failed")
		return "", err
	}

	s.logger.Debug().
		Str("model", req.Model).
		Int("response_length", len(result.Response)).
		Dur("duration", time.Since(startTime)).
		Msg("Reasoning model call completed")

	return result.Response, nil
}

// ListModels returns the name of every model installed on the server
func (s *OllamaService) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTagsResponse
	if err := s.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
	}
	return names, nil
}

// GetMode returns LLMModeOffline since the model runs on a local server
func (s *OllamaService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeOffline
}

func (s *OllamaService) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return permanent(fmt.Errorf("failed to marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
