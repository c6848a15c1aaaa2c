package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Chained inference (POST /query, GET /models)
	mux.Handle("/query", s.rateLimitMiddleware(http.HandlerFunc(s.app.QueryHandler.QueryHandler)))
	mux.HandleFunc("/models", s.app.QueryHandler.ModelsHandler)

	// Documents (GET /documents) and ingestion (POST /ingest)
	mux.HandleFunc("/documents", s.app.DocumentHandler.ListHandler)
	mux.HandleFunc("/ingest", s.app.DocumentHandler.IngestHandler)

	// System
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// 404 handler for everything else
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
