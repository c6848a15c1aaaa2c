package models

import "time"

// QueryResult is the outcome of one chained inference request
type QueryResult struct {
	Context   string `json:"context"`
	Reasoning string `json:"reasoning"`
	Response  string `json:"response"`
}

// IngestStatus is the terminal status of an ingestion run
type IngestStatus string

const (
	IngestSuccess     IngestStatus = "success"
	IngestNoDocuments IngestStatus = "no_documents"
	IngestFailure     IngestStatus = "failure"
)

// IngestResult reports the outcome of IngestionPipeline.Run
type IngestResult struct {
	Status IngestStatus `json:"status"`

	// Count is the number of files that were loaded (success) or scanned.
	Count int `json:"count"`

	// Detail is a human readable summary, or the cause on failure.
	Detail string `json:"detail"`

	Files      []string      `json:"files,omitempty"` // base names of the files scanned
	Chunks     int           `json:"chunks"`
	Dimension  int           `json:"dimension,omitempty"`
	Duration   time.Duration `json:"duration"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`

	// Err carries the causing error when Status is IngestFailure
	Err error `json:"-"`
}

// PipelineState is the ingestion state machine position
type PipelineState string

const (
	StateIdle       PipelineState = "IDLE"
	StateLoading    PipelineState = "LOADING"
	StateProcessing PipelineState = "PROCESSING"
)

// ModelCatalog lists the models available to the query endpoint
type ModelCatalog struct {
	ReasoningModelIDs []string `json:"reasoning_model_ids"`
	ResponseModelID   string   `json:"response_model_id"`
	All               []string `json:"all"`
}
