package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/ternarybob/ragchain/internal/services/ingestion"
)

// DocumentHandler serves document listing and ingestion
type DocumentHandler struct {
	catalog   interfaces.DocumentCatalog
	ingestion interfaces.IngestionService
	logger    arbor.ILogger
}

func NewDocumentHandler(catalog interfaces.DocumentCatalog, ingestionService interfaces.IngestionService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		catalog:   catalog,
		ingestion: ingestionService,
		logger:    logger,
	}
}

// ListHandler returns the base names of the supported files in the document directory
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	files, err := h.catalog.Refresh()
	if err != nil {
		h.logger.Error().Err(err).Str("dir", h.catalog.Dir()).Msg("Failed to list documents")
		WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	sort.Strings(names)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"documents": names,
	})
}

// IngestHandler rebuilds the index synchronously. The run outlives a client
// disconnect so the collection is never left half written by a dropped request.
func (h *DocumentHandler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	ctx := ingestion.WithTrigger(context.WithoutCancel(r.Context()), ingestion.TriggerRequest)
	result, err := h.ingestion.Run(ctx)
	if errors.Is(err, interfaces.ErrIngestionInProgress) {
		WriteError(w, http.StatusConflict, "Ingestion already in progress")
		return
	}

	switch result.Status {
	case models.IngestSuccess:
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"message":         result.Detail,
			"document_count":  result.Count,
			"processed_files": result.Files,
		})

	case models.IngestNoDocuments:
		WriteError(w, http.StatusOK, result.Detail)

	default:
		details := result.Detail
		if details == "" && err != nil {
			details = err.Error()
		}
		WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Failed to process documents",
			"details": details,
		})
	}
}
