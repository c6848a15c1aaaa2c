package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// upsertBatchSize bounds the number of entries written per Badger transaction
const upsertBatchSize = 500

// vectorCollection is the stored definition of a collection
type vectorCollection struct {
	Name      string
	Dimension int
	Metric    models.DistanceMetric
	CreatedAt time.Time
}

// vectorRecord is one stored point. Collection is indexed so a collection
// can be dropped or scanned without touching the others.
type vectorRecord struct {
	Collection string `badgerhold:"index"`
	ID         uint64
	Vector     []float32
	Text       string
	Metadata   map[string]interface{}
}

// VectorStorage is an embedded VectorIndex with brute-force similarity search
type VectorStorage struct {
	db         *BadgerDB
	collection string
	logger     arbor.ILogger
}

var _ interfaces.VectorIndex = (*VectorStorage)(nil)

// NewVectorStorage creates a vector index over one collection of db
func NewVectorStorage(db *BadgerDB, collection string, logger arbor.ILogger) *VectorStorage {
	return &VectorStorage{
		db:         db,
		collection: collection,
		logger:     logger,
	}
}

func recordKey(collection string, id uint64) string {
	return fmt.Sprintf("%s/%d", collection, id)
}

// Recreate drops every record of the collection and stores a fresh definition
func (s *VectorStorage) Recreate(ctx context.Context, dimension int, metric models.DistanceMetric) error {
	if dimension <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}
	if metric != models.DistanceCosine && metric != models.DistanceDot {
		return fmt.Errorf("unsupported distance metric: %s", metric)
	}

	store := s.db.Store()

	if err := store.DeleteMatching(&vectorRecord{}, badgerhold.Where("Collection").Eq(s.collection)); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
	}

	definition := vectorCollection{
		Name:      s.collection,
		Dimension: dimension,
		Metric:    metric,
		CreatedAt: time.Now(),
	}
	if err := store.Upsert(s.collection, &definition); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	s.logger.Debug().
		Str("collection", s.collection).
		Int("dimension", dimension).
		Str("metric", string(metric)).
		Msg("Collection recreated")

	return nil
}

// Drop removes every record and the stored definition of the collection
func (s *VectorStorage) Drop(ctx context.Context) error {
	store := s.db.Store()

	if err := store.DeleteMatching(&vectorRecord{}, badgerhold.Where("Collection").Eq(s.collection)); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
	}

	err := store.Delete(s.collection, vectorCollection{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
	}

	s.logger.Debug().Str("collection", s.collection).Msg("Collection dropped")
	return nil
}

// Upsert writes entries in batches of upsertBatchSize per transaction
func (s *VectorStorage) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	definition, err := s.definition()
	if err != nil {
		return err
	}
	if definition == nil {
		return fmt.Errorf("collection %s does not exist", s.collection)
	}

	for _, entry := range entries {
		if len(entry.Vector) != definition.Dimension {
			return fmt.Errorf("entry %d has dimension %d, collection %s expects %d",
				entry.ID, len(entry.Vector), s.collection, definition.Dimension)
		}
	}

	store := s.db.Store()
	for start := 0; start < len(entries); start += upsertBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+upsertBatchSize, len(entries))
		err := store.Badger().Update(func(tx *badgerdb.Txn) error {
			for _, entry := range entries[start:end] {
				record := &vectorRecord{
					Collection: s.collection,
					ID:         entry.ID,
					Vector:     entry.Vector,
					Text:       entry.Payload.Text,
					Metadata:   entry.Payload.Metadata,
				}
				if err := store.TxUpsert(tx, recordKey(s.collection, entry.ID), record); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to upsert entries %d-%d into %s: %w", start, end-1, s.collection, err)
		}
	}

	s.logger.Debug().
		Str("collection", s.collection).
		Int("entries", len(entries)).
		Msg("Entries upserted")

	return nil
}

// Search scores every record of the collection and returns the k best
func (s *VectorStorage) Search(ctx context.Context, vector []float32, k int) ([]models.SearchHit, error) {
	if k <= 0 {
		return []models.SearchHit{}, nil
	}

	definition, err := s.definition()
	if err != nil {
		return nil, err
	}
	if definition == nil {
		return []models.SearchHit{}, nil
	}
	if len(vector) != definition.Dimension {
		return nil, fmt.Errorf("query vector has dimension %d, collection %s expects %d",
			len(vector), s.collection, definition.Dimension)
	}

	var records []vectorRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("Collection").Eq(s.collection)); err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %w", s.collection, err)
	}

	type scored struct {
		record *vectorRecord
		score  float32
	}
	results := make([]scored, 0, len(records))
	for i := range records {
		results = append(results, scored{
			record: &records[i],
			score:  similarity(definition.Metric, vector, records[i].Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].record.ID < results[j].record.ID
	})

	if len(results) > k {
		results = results[:k]
	}

	hits := make([]models.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.SearchHit{
			Text:     r.record.Text,
			Metadata: models.CopyMetadata(r.record.Metadata),
			Score:    r.score,
		})
	}
	return hits, nil
}

// definition returns the stored collection definition, or nil if the
// collection has never been created
func (s *VectorStorage) definition() (*vectorCollection, error) {
	var definition vectorCollection
	err := s.db.Store().Get(s.collection, &definition)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", s.collection, err)
	}
	return &definition, nil
}

// Collection returns the collection name
func (s *VectorStorage) Collection() string {
	return s.collection
}

// Close closes the underlying database
func (s *VectorStorage) Close() error {
	return s.db.Close()
}

func similarity(metric models.DistanceMetric, a, b []float32) float32 {
	if metric == models.DistanceDot {
		return dot(a, b)
	}
	return cosine(a, b)
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// cosine returns 0 when either vector has zero norm
func cosine(a, b []float32) float32 {
	var ab, aa, bb float64
	for i := range a {
		ab += float64(a[i]) * float64(b[i])
		aa += float64(a[i]) * float64(a[i])
		bb += float64(b[i]) * float64(b[i])
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return float32(ab / (math.Sqrt(aa) * math.Sqrt(bb)))
}
