package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/ragchain/internal/app"
	"github.com/ternarybob/ragchain/internal/common"
)

func main() {
	if err := common.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
	}

	// A missing config file falls back to defaults and environment
	var configFiles []string
	configPath := os.Getenv("RAGCHAIN_CONFIG")
	if configPath == "" {
		configPath = "ragchain.toml"
	}
	if _, err := os.Stat(configPath); err == nil {
		configFiles = append(configFiles, configPath)
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	foregroundOnly(config)

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"ragchain",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)
	registerTools(mcpServer, application, logger)

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}

// foregroundOnly turns off the watcher and startup ingestion. The HTTP service
// owns those; here the index is only rebuilt by the ingest_documents tool.
func foregroundOnly(config *common.Config) {
	config.Watcher.Enabled = false
	config.Ingestion.OnStartup = false
}

// registerTools adds the document tools backed by application
func registerTools(mcpServer *server.MCPServer, application *app.App, logger arbor.ILogger) {
	defaultModel := application.Config.Reasoning.DefaultModel

	mcpServer.AddTool(createAskDocumentsTool(defaultModel), handleAskDocuments(application.InferenceEngine, defaultModel, logger))
	mcpServer.AddTool(createSearchDocumentsTool(), handleSearchDocuments(application.InferenceEngine, logger))
	mcpServer.AddTool(createListDocumentsTool(), handleListDocuments(application.Catalog, logger))
	mcpServer.AddTool(createIngestDocumentsTool(), handleIngestDocuments(application.IngestionService, logger))
}
