package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxK = 100

// createAskDocumentsTool returns the ask_documents tool definition
func createAskDocumentsTool(defaultModel string) mcp.Tool {
	return mcp.NewTool("ask_documents",
		mcp.WithDescription("Answer a question from the indexed documents: retrieves context, reasons over it with a local model and writes the final answer with the response model"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to answer"),
		),
		mcp.WithNumber("k",
			mcp.Description(fmt.Sprintf("Number of chunks to retrieve (default: 4, max: %d)", maxK)),
		),
		mcp.WithString("reasoning_model",
			mcp.Description(fmt.Sprintf("Ollama model used for reasoning (default: %s)", defaultModel)),
		),
	)
}

// createSearchDocumentsTool returns the search_documents tool definition
func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantic search over the indexed document chunks"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("k",
			mcp.Description(fmt.Sprintf("Maximum chunks to return (default: 4, max: %d)", maxK)),
		),
	)
}

// createListDocumentsTool returns the list_documents tool definition
func createListDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List the PDF, DOCX and TXT files in the document directory"),
	)
}

// createIngestDocumentsTool returns the ingest_documents tool definition
func createIngestDocumentsTool() mcp.Tool {
	return mcp.NewTool("ingest_documents",
		mcp.WithDescription("Rebuild the vector index from the document directory"),
	)
}
