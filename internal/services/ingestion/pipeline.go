package ingestion

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// Triggers recorded on ingestion_started events
const (
	TriggerRequest = "request"
	TriggerStartup = "startup"
	TriggerWatcher = "watcher"
	TriggerResync  = "resync"
)

type triggerKey struct{}

// WithTrigger labels the runs started with ctx
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFrom returns the trigger label of ctx, TriggerRequest by default
func TriggerFrom(ctx context.Context) string {
	if trigger, ok := ctx.Value(triggerKey{}).(string); ok && trigger != "" {
		return trigger
	}
	return TriggerRequest
}

// Pipeline implements IngestionService. It rebuilds the whole collection from
// the document directory on every run.
type Pipeline struct {
	catalog  interfaces.DocumentCatalog
	loader   interfaces.DocumentLoader
	chunker  interfaces.Chunker
	embedder interfaces.Embedder
	index    interfaces.VectorIndex
	events   interfaces.EventService
	logger   arbor.ILogger

	running atomic.Bool

	mu      sync.RWMutex
	state   models.PipelineState
	last    models.IngestResult
	hasLast bool
}

var _ interfaces.IngestionService = (*Pipeline)(nil)

// NewPipeline creates an idle pipeline. events may be nil.
func NewPipeline(
	catalog interfaces.DocumentCatalog,
	loader interfaces.DocumentLoader,
	chunker interfaces.Chunker,
	embedder interfaces.Embedder,
	index interfaces.VectorIndex,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Pipeline {
	return &Pipeline{
		catalog:  catalog,
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		events:   events,
		logger:   logger,
		state:    models.StateIdle,
	}
}

// Run loads, splits and embeds every document, then replaces the collection.
// A run started while another is active returns ErrIngestionInProgress at
// once. Failures are returned both as the result status and as the error.
func (p *Pipeline) Run(ctx context.Context) (models.IngestResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Debug().Str("trigger", TriggerFrom(ctx)).Msg("Ingestion already running, trigger dropped")
		return models.IngestResult{}, interfaces.ErrIngestionInProgress
	}
	defer func() {
		p.setState(models.StateIdle)
		p.running.Store(false)
	}()

	trigger := TriggerFrom(ctx)
	p.publish(ctx, interfaces.EventIngestionStarted, map[string]interface{}{"trigger": trigger})
	p.logger.Info().Str("trigger", trigger).Str("dir", p.catalog.Dir()).Msg("Ingestion started")

	result := p.run(ctx)
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	p.mu.Lock()
	p.last = result
	p.hasLast = true
	p.mu.Unlock()

	if result.Status == models.IngestFailure {
		p.logger.Error().
			Err(result.Err).
			Str("trigger", trigger).
			Dur("duration", result.Duration).
			Msg("Ingestion failed")
		p.publish(ctx, interfaces.EventIngestionFailed, result)
		return result, result.Err
	}

	p.logger.Info().
		Str("trigger", trigger).
		Str("status", string(result.Status)).
		Int("files", result.Count).
		Int("chunks", result.Chunks).
		Int("dimension", result.Dimension).
		Dur("duration", result.Duration).
		Msg("Ingestion completed")
	p.publish(ctx, interfaces.EventIngestionCompleted, result)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context) models.IngestResult {
	result := models.IngestResult{StartedAt: time.Now()}
	fail := func(format string, err error) models.IngestResult {
		result.Status = models.IngestFailure
		result.Err = fmt.Errorf(format, err)
		result.Detail = result.Err.Error()
		return result
	}

	p.setState(models.StateLoading)

	files, err := p.catalog.Refresh()
	if err != nil {
		return fail("failed to scan documents: %w", err)
	}
	result.Count = len(files)
	result.Files = make([]string, len(files))
	for i, f := range files {
		result.Files[i] = f.Name()
	}
	if len(files) == 0 {
		return p.noDocuments(ctx, result, fmt.Sprintf("No valid documents found in %s. Please upload PDF, DOCX, or TXT files.", p.catalog.Dir()))
	}

	docs, err := p.loader.LoadAll(ctx, p.catalog.Dir())
	if err != nil {
		return fail("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return p.noDocuments(ctx, result, "No documents could be loaded from the files")
	}

	p.setState(models.StateProcessing)

	chunks := p.chunker.Split(docs)
	if len(chunks) == 0 {
		return p.noDocuments(ctx, result, "No documents could be loaded from the files")
	}
	result.Chunks = len(chunks)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	// The previous collection is left untouched until every vector exists
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fail("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fail("failed to embed chunks: %w", fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	result.Dimension = len(vectors[0])

	if err := p.index.Recreate(ctx, result.Dimension, models.DistanceCosine); err != nil {
		return fail("failed to recreate collection: %w", err)
	}

	entries := make([]models.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = models.IndexEntry{
			ID:     uint64(i),
			Vector: vectors[i],
			Payload: models.IndexPayload{
				Text:     chunk.Text,
				Metadata: chunk.Metadata,
			},
		}
	}
	if err := p.index.Upsert(ctx, entries); err != nil {
		return fail("failed to upsert vectors: %w", err)
	}

	result.Status = models.IngestSuccess
	result.Detail = fmt.Sprintf("Successfully processed %d documents", len(files))
	return result
}

// noDocuments empties the index so that it matches a directory with nothing
// to index, then reports detail as a no_documents outcome.
func (p *Pipeline) noDocuments(ctx context.Context, result models.IngestResult, detail string) models.IngestResult {
	if err := p.index.Drop(ctx); err != nil {
		result.Status = models.IngestFailure
		result.Err = fmt.Errorf("failed to clear collection: %w", err)
		result.Detail = result.Err.Error()
		return result
	}

	result.Status = models.IngestNoDocuments
	result.Detail = detail
	return result
}

// State returns the current state machine position
func (p *Pipeline) State() models.PipelineState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// LastResult returns the most recent completed run, if any
func (p *Pipeline) LastResult() (models.IngestResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.hasLast
}

func (p *Pipeline) setState(state models.PipelineState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *Pipeline) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		p.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish event")
	}
}
