package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

const (
	DefaultClaudeModel     = "claude-sonnet-4-20250514"
	DefaultClaudeMaxTokens = 2048
	DefaultResponseTimeout = 2 * time.Minute
)

// ClaudeService implements CompletionModel using the Anthropic Messages API.
type ClaudeService struct {
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	client      anthropic.Client
	logger      arbor.ILogger
}

var _ interfaces.CompletionModel = (*ClaudeService)(nil)

// NewClaudeService creates a new Claude response model.
//
// Parameters:
//   - config: response model configuration with API key and model settings
//   - logger: structured logger for service operations
//
// Returns:
//   - *ClaudeService: initialized service ready for use
//   - error: missing API key
func NewClaudeService(config *common.ResponseConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for the claude response provider (set via ANTHROPIC_API_KEY, RAGCHAIN_CLAUDE_API_KEY, or response.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultClaudeMaxTokens
	}

	timeout := common.ParseDuration(config.Timeout, DefaultResponseTimeout)

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		// The response stage is never retried
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	service := &ClaudeService{
		model:       model,
		temperature: config.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		client:      anthropic.NewClient(opts...),
		logger:      logger,
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Float64("temperature", config.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude response service initialized")

	return service, nil
}

// Chat generates a completion for the conversation. The first system message
// becomes the request's system prompt.
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}
	if s.temperature > 0 {
		params.Temperature = anthropic.Float(s.temperature)
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	startTime := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", s.model).
			Msg("Claude chat completion failed")
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	s.logger.Debug().
		Str("model", s.model).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude chat completion completed")

	return response.String(), nil
}

// Model returns the configured Claude model
func (s *ClaudeService) Model() string {
	return s.model
}

// GetMode returns LLMModeCloud
func (s *ClaudeService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}
