package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("RAGChain", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("documents", config.Documents.Dir).
		Str("vector_db", config.VectorDB.Backend).
		Str("collection", config.VectorDB.Collection).
		Str("embedding", config.Embedding.Provider).
		Str("reasoning_url", config.Reasoning.BaseURL).
		Str("response", config.Response.Provider+"/"+config.Response.Model).
		Msg("Configuration resolved")
}
