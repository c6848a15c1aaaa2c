package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/ternarybob/ragchain/internal/services/inference"
)

// QueryRequest is the body of POST /query. K and ReasoningModel are optional.
type QueryRequest struct {
	Text           string `json:"text" validate:"required"`
	K              int    `json:"k" validate:"gte=0,lte=100"`
	ReasoningModel string `json:"reasoning_model"`
}

// QueryResponse is the success payload of POST /query
type QueryResponse struct {
	Success bool `json:"success"`
	models.QueryResult
}

// QueryHandler serves the chained inference endpoints
type QueryHandler struct {
	engine                interfaces.InferenceEngine
	defaultReasoningModel string
	validate              *validator.Validate
	logger                arbor.ILogger
}

func NewQueryHandler(engine interfaces.InferenceEngine, defaultReasoningModel string, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		engine:                engine,
		defaultReasoningModel: defaultReasoningModel,
		validate:              validator.New(),
		logger:                logger,
	}
}

// QueryHandler runs embed, search, reasoning and response for one question.
// A failing stage answers 500 with the stage label in the error.
func (h *QueryHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req QueryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}

	k := req.K
	if k == 0 {
		k = inference.DefaultK
	}
	reasoningModel := req.ReasoningModel
	if reasoningModel == "" {
		reasoningModel = h.defaultReasoningModel
	}

	h.logger.Info().
		Str("reasoning_model", reasoningModel).
		Int("k", k).
		Int("query_length", len(req.Text)).
		Msg("Query received")

	result, err := h.engine.Process(r.Context(), req.Text, reasoningModel, k)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, QueryResponse{Success: true, QueryResult: *result})
}

// ModelsHandler lists the reasoning models and the response model. An
// unreachable model server yields empty lists rather than an error.
func (h *QueryHandler) ModelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	catalog, err := h.engine.Models(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to list models")
		catalog = &models.ModelCatalog{}
	}
	if catalog.ReasoningModelIDs == nil {
		catalog.ReasoningModelIDs = []string{}
	}
	if catalog.All == nil {
		catalog.All = []string{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"models":  catalog,
	})
}
