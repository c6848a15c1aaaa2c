package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ragchain/internal/models"
)

// formatAnswer formats a query result as markdown
func formatAnswer(question string, result *models.QueryResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Answer to \"%s\"\n\n", question))
	sb.WriteString(result.Response)
	sb.WriteString("\n\n### Reasoning\n\n")
	sb.WriteString(result.Reasoning)
	sb.WriteString("\n")

	if result.Context != "" {
		sb.WriteString("\n### Retrieved Context\n\n")
		sb.WriteString(result.Context)
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatSearchResults formats search hits as markdown
func formatSearchResults(query string, hits []models.SearchHit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(hits)))

	if len(hits) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, hit := range hits {
		source, _ := hit.Metadata[models.MetaFileName].(string)
		if source == "" {
			source = "unknown"
		}
		sb.WriteString(fmt.Sprintf("### %d. %s (score %.3f)\n", i+1, source, hit.Score))
		if page, ok := hit.Metadata[models.MetaPage]; ok {
			sb.WriteString(fmt.Sprintf("**Page:** %v\n", page))
		}
		sb.WriteString("\n")
		sb.WriteString(hit.Text)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// formatDocumentList formats the tracked files as markdown
func formatDocumentList(dir string, files []models.DocumentFile) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Documents in %s (%d)\n\n", dir, len(files)))

	if len(files) == 0 {
		sb.WriteString("No PDF, DOCX, or TXT files found.\n")
		return sb.String()
	}

	for _, f := range files {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", f.Name(), f.Extension))
	}

	return sb.String()
}
