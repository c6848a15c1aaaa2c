package ingestion

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/ternarybob/ragchain/internal/services/chunker"
	"github.com/ternarybob/ragchain/internal/services/documents"
	"github.com/ternarybob/ragchain/internal/services/events"
	"github.com/ternarybob/ragchain/internal/services/pdf"
	"github.com/ternarybob/ragchain/internal/storage/badger"
)

const reportText = "Sales rose 10% in Q1. Costs fell 5%."

// hashEmbedder is a bag-of-words embedder: each lowercase word increments one
// of 64 buckets. It can block or fail on demand.
type hashEmbedder struct {
	mu      sync.Mutex
	calls   int
	err     error
	release chan struct{}
	entered chan struct{}
}

func (e *hashEmbedder) embed(text string) []float32 {
	vector := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,")))
		vector[h.Sum32()%64]++
	}
	return vector
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()

	if e.entered != nil {
		close(e.entered)
	}
	if e.release != nil {
		<-e.release
	}
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *hashEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *hashEmbedder) ModelName() string { return "hash" }

// failingUpsert wraps an index and fails every upsert
type failingUpsert struct {
	interfaces.VectorIndex
}

func (f failingUpsert) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	return errors.New("qdrant unavailable")
}

type fixture struct {
	dir      string
	embedder *hashEmbedder
	index    interfaces.VectorIndex
	pipeline *Pipeline
	events   *events.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithIndex(t, nil)
}

func newFixtureWithIndex(t *testing.T, wrap func(interfaces.VectorIndex) interfaces.VectorIndex) *fixture {
	t.Helper()
	logger := arbor.NewLogger()

	db, err := badger.NewBadgerDB(logger, "")
	require.NoError(t, err)
	var index interfaces.VectorIndex = badger.NewVectorStorage(db, "TEST_COLLECTION", logger)
	t.Cleanup(func() { index.Close() })
	if wrap != nil {
		index = wrap(index)
	}

	split, err := chunker.NewService(1000, 100, logger)
	require.NoError(t, err)

	dir := t.TempDir()
	loader := documents.NewService(pdf.NewExtractor(logger), logger)
	catalog := documents.NewCatalog(dir, loader)
	eventService := events.NewService(logger)
	embedder := &hashEmbedder{}

	return &fixture{
		dir:      dir,
		embedder: embedder,
		index:    index,
		events:   eventService,
		pipeline: NewPipeline(catalog, loader, split, embedder, index, eventService, logger),
	}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0644))
}

func (f *fixture) search(t *testing.T, query string, k int) []models.SearchHit {
	t.Helper()
	vector, err := f.embedder.EmbedOne(context.Background(), query)
	require.NoError(t, err)
	hits, err := f.index.Search(context.Background(), vector, k)
	require.NoError(t, err)
	return hits
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)
	f.write(t, "weather.txt", "It rained all week in Paris.")

	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IngestSuccess, result.Status)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{"report.txt", "weather.txt"}, result.Files)
	assert.Equal(t, "Successfully processed 2 documents", result.Detail)
	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, 64, result.Dimension)
	assert.Equal(t, models.StateIdle, f.pipeline.State())

	hits := f.search(t, reportText, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, reportText, hits[0].Text)
	assert.Equal(t, "report.txt", hits[0].Metadata[models.MetaFileName])

	last, ok := f.pipeline.LastResult()
	require.True(t, ok)
	assert.Equal(t, result.Detail, last.Detail)
}

func TestRun_NoFiles(t *testing.T) {
	f := newFixture(t)
	f.write(t, "notes.md", "unsupported")

	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IngestNoDocuments, result.Status)
	assert.Equal(t, "No valid documents found in "+f.dir+". Please upload PDF, DOCX, or TXT files.", result.Detail)
	assert.Zero(t, f.embedder.calls)
}

func TestRun_NoParseableContent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "broken.pdf", "not a pdf")
	f.write(t, "blank.txt", "  \n")

	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IngestNoDocuments, result.Status)
	assert.Equal(t, "No documents could be loaded from the files", result.Detail)
	assert.Equal(t, 2, result.Count)
}

func TestRun_EmbeddingFailureKeepsPreviousCollection(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	f.write(t, "weather.txt", "It rained all week in Paris.")
	f.embedder.err = errors.New("rate limited")

	result, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.IngestFailure, result.Status)
	assert.Contains(t, result.Detail, "rate limited")
	assert.Equal(t, models.StateIdle, f.pipeline.State())

	// Previous run is still searchable
	hits := f.search(t, reportText, 4)
	require.Len(t, hits, 1)
	assert.Equal(t, reportText, hits[0].Text)
}

func TestRun_UpsertFailureLeavesEmptyCollection(t *testing.T) {
	f := newFixtureWithIndex(t, func(index interfaces.VectorIndex) interfaces.VectorIndex {
		return failingUpsert{VectorIndex: index}
	})
	f.write(t, "report.txt", reportText)

	result, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.IngestFailure, result.Status)
	assert.Contains(t, result.Detail, "failed to upsert vectors")
	assert.Empty(t, f.search(t, reportText, 4))
}

func TestRun_SingleFlight(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)
	f.embedder.entered = make(chan struct{})
	f.embedder.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.Run(context.Background())
		done <- err
	}()

	<-f.embedder.entered
	assert.Equal(t, models.StateProcessing, f.pipeline.State())

	result, err := f.pipeline.Run(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrIngestionInProgress)
	assert.Equal(t, models.IngestResult{}, result)

	close(f.embedder.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.embedder.calls)

	// The guard is released once the run ends
	f.embedder.entered = nil
	f.embedder.release = nil
	_, err = f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.embedder.calls)
}

func TestRun_DenseIDs(t *testing.T) {
	var captured []models.IndexEntry
	f := newFixtureWithIndex(t, func(index interfaces.VectorIndex) interfaces.VectorIndex {
		return &capturingIndex{VectorIndex: index, entries: &captured}
	})
	f.write(t, "a.txt", strings.Repeat("alpha beta gamma ", 800))
	f.write(t, "b.txt", "short")

	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.Chunks, len(captured))
	require.Greater(t, len(captured), 2)
	for i, entry := range captured {
		assert.Equal(t, uint64(i), entry.ID)
		assert.Len(t, entry.Vector, result.Dimension)
	}
}

type capturingIndex struct {
	interfaces.VectorIndex
	entries *[]models.IndexEntry
}

func (c *capturingIndex) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	*c.entries = entries
	return c.VectorIndex.Upsert(ctx, entries)
}

func TestRun_FileRemoval(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)
	f.write(t, "weather.txt", "It rained all week in Paris.")

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.dir, "report.txt")))
	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"weather.txt"}, result.Files)

	for _, hit := range f.search(t, reportText, 10) {
		assert.NotEqual(t, "report.txt", hit.Metadata[models.MetaFileName])
	}
}

func TestRun_RemovingLastFileEmptiesIndex(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, f.search(t, reportText, 10), 1)

	require.NoError(t, os.Remove(filepath.Join(f.dir, "report.txt")))
	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IngestNoDocuments, result.Status)

	assert.Empty(t, f.search(t, reportText, 10))
}

func TestRun_UnparseableFilesEmptyIndex(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	f.write(t, "report.txt", "  \n")
	result, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IngestNoDocuments, result.Status)
	assert.Empty(t, f.search(t, reportText, 10))
}

func TestRun_DropFailureIsReported(t *testing.T) {
	f := newFixtureWithIndex(t, func(index interfaces.VectorIndex) interfaces.VectorIndex {
		return failingDrop{VectorIndex: index}
	})

	result, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.IngestFailure, result.Status)
	assert.Contains(t, result.Detail, "failed to clear collection")
}

// failingDrop wraps an index and fails every drop
type failingDrop struct {
	interfaces.VectorIndex
}

func (f failingDrop) Drop(ctx context.Context) error {
	return errors.New("qdrant unavailable")
}

func TestRun_PublishesEvents(t *testing.T) {
	f := newFixture(t)
	f.write(t, "report.txt", reportText)

	var mu sync.Mutex
	received := map[interfaces.EventType]interfaces.Event{}
	record := func(ctx context.Context, event interfaces.Event) error {
		mu.Lock()
		received[event.Type] = event
		mu.Unlock()
		return nil
	}
	require.NoError(t, f.events.Subscribe(interfaces.EventIngestionStarted, record))
	require.NoError(t, f.events.Subscribe(interfaces.EventIngestionCompleted, record))

	_, err := f.pipeline.Run(WithTrigger(context.Background(), TriggerWatcher))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	started := received[interfaces.EventIngestionStarted].Payload.(map[string]interface{})
	assert.Equal(t, TriggerWatcher, started["trigger"])
	completed := received[interfaces.EventIngestionCompleted].Payload.(models.IngestResult)
	assert.Equal(t, models.IngestSuccess, completed.Status)
}
