package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

// NewReasoningModel creates the local reasoning model client
func NewReasoningModel(cfg *common.ReasoningConfig, logger arbor.ILogger) (interfaces.ReasoningModel, error) {
	logger.Info().
		Str("base_url", cfg.BaseURL).
		Str("default_model", cfg.DefaultModel).
		Msg("Initializing reasoning model")

	return NewOllamaService(cfg, logger)
}

// NewCompletionModel creates the response model for the configured provider
func NewCompletionModel(ctx context.Context, cfg *common.ResponseConfig, logger arbor.ILogger) (interfaces.CompletionModel, error) {
	logger.Info().Str("provider", cfg.Provider).Msg("Initializing response model")

	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIChatService(cfg, logger)
	case "claude":
		return NewClaudeService(cfg, logger)
	case "gemini":
		return NewGeminiChatService(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported response provider '%s': must be 'openai', 'claude' or 'gemini'", cfg.Provider)
	}
}

// NewEmbeddingProvider creates the embedding provider for the configured provider
func NewEmbeddingProvider(ctx context.Context, cfg *common.EmbeddingConfig, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
	logger.Info().Str("provider", cfg.Provider).Msg("Initializing embedding provider")

	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIEmbeddingService(cfg, logger)
	case "gemini":
		return NewGeminiEmbeddingService(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported embedding provider '%s': must be 'openai' or 'gemini'", cfg.Provider)
	}
}
