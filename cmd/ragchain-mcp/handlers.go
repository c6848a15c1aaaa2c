package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/ternarybob/ragchain/internal/services/inference"
	"github.com/ternarybob/ragchain/internal/services/ingestion"
)

// clampK applies the default and the upper bound to a requested k
func clampK(k int) int {
	if k <= 0 {
		return inference.DefaultK
	}
	if k > maxK {
		return maxK
	}
	return k
}

// handleAskDocuments implements the ask_documents tool
func handleAskDocuments(engine interfaces.InferenceEngine, defaultModel string, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil || question == "" {
			return mcp.NewToolResultError("Error: question parameter is required"), nil
		}

		k := clampK(request.GetInt("k", inference.DefaultK))
		model := request.GetString("reasoning_model", defaultModel)

		result, err := engine.Process(ctx, question, model, k)
		if err != nil {
			logger.Error().Err(err).Str("reasoning_model", model).Msg("ask_documents failed")
			return mcp.NewToolResultError(fmt.Sprintf("Query failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatAnswer(question, result)), nil
	}
}

// handleSearchDocuments implements the search_documents tool
func handleSearchDocuments(engine interfaces.InferenceEngine, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return mcp.NewToolResultError("Error: query parameter is required"), nil
		}

		k := clampK(request.GetInt("k", inference.DefaultK))

		hits, err := engine.Search(ctx, query, k)
		if err != nil {
			logger.Error().Err(err).Msg("search_documents failed")
			return mcp.NewToolResultError(fmt.Sprintf("Search error: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, hits)), nil
	}
}

// handleListDocuments implements the list_documents tool
func handleListDocuments(catalog interfaces.DocumentCatalog, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		files, err := catalog.Refresh()
		if err != nil {
			logger.Error().Err(err).Msg("list_documents failed")
			return mcp.NewToolResultError(fmt.Sprintf("List error: %v", err)), nil
		}

		return mcp.NewToolResultText(formatDocumentList(catalog.Dir(), files)), nil
	}
}

// handleIngestDocuments implements the ingest_documents tool
func handleIngestDocuments(ingestionService interfaces.IngestionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := ingestionService.Run(ingestion.WithTrigger(ctx, ingestion.TriggerRequest))
		if errors.Is(err, interfaces.ErrIngestionInProgress) {
			return mcp.NewToolResultError("Ingestion already in progress"), nil
		}

		switch result.Status {
		case models.IngestSuccess:
			return mcp.NewToolResultText(fmt.Sprintf("%s (%d chunks): %v", result.Detail, result.Chunks, result.Files)), nil
		case models.IngestNoDocuments:
			return mcp.NewToolResultText(result.Detail), nil
		default:
			logger.Error().Err(err).Msg("ingest_documents failed")
			return mcp.NewToolResultError(fmt.Sprintf("Failed to process documents: %s", result.Detail)), nil
		}
	}
}
