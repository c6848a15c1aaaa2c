package qdrant

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

var _ interfaces.VectorIndex = (*Client)(nil)

type vectorParams struct {
	Size     int                   `json:"size"`
	Distance models.DistanceMetric `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type point struct {
	ID      uint64              `json:"id"`
	Vector  []float32           `json:"vector"`
	Payload models.IndexPayload `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type scoredPoint struct {
	ID      interface{}         `json:"id"`
	Score   float32             `json:"score"`
	Payload models.IndexPayload `json:"payload"`
}

type searchResponse struct {
	Result []scoredPoint `json:"result"`
	Status string        `json:"status"`
}

// Recreate deletes the collection, ignoring a missing one, and creates it
// with the given vector size and metric.
func (c *Client) Recreate(ctx context.Context, dimension int, metric models.DistanceMetric) error {
	if dimension <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}

	err := c.do(ctx, http.MethodDelete, c.collectionPath(""), nil, nil)
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete collection %s: %w", c.collection, err)
	}

	req := createCollectionRequest{Vectors: vectorParams{Size: dimension, Distance: metric}}
	if err := c.do(ctx, http.MethodPut, c.collectionPath(""), req, nil); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.collection, err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("collection", c.collection).
			Int("dimension", dimension).
			Str("metric", string(metric)).
			Msg("Collection recreated")
	}
	return nil
}

// Drop deletes the collection. A missing collection is already dropped.
func (c *Client) Drop(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, c.collectionPath(""), nil, nil)
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete collection %s: %w", c.collection, err)
	}

	if c.logger != nil {
		c.logger.Debug().Str("collection", c.collection).Msg("Collection dropped")
	}
	return nil
}

// Upsert sends entries in batches and waits for each batch to be applied.
func (c *Client) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	for start := 0; start < len(entries); start += c.upsertBatch {
		end := min(start+c.upsertBatch, len(entries))

		points := make([]point, 0, end-start)
		for _, entry := range entries[start:end] {
			points = append(points, point{ID: entry.ID, Vector: entry.Vector, Payload: entry.Payload})
		}

		if err := c.do(ctx, http.MethodPut, c.collectionPath("/points?wait=true"), upsertRequest{Points: points}, nil); err != nil {
			return fmt.Errorf("failed to upsert points %d-%d into %s: %w", start, end-1, c.collection, err)
		}
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("collection", c.collection).
			Int("entries", len(entries)).
			Msg("Points upserted")
	}
	return nil
}

// Search returns the k nearest points. A missing collection is an empty result.
func (c *Client) Search(ctx context.Context, vector []float32, k int) ([]models.SearchHit, error) {
	if k <= 0 {
		return []models.SearchHit{}, nil
	}

	var resp searchResponse
	req := searchRequest{Vector: vector, Limit: k, WithPayload: true}
	if err := c.do(ctx, http.MethodPost, c.collectionPath("/points/search"), req, &resp); err != nil {
		if IsNotFound(err) {
			return []models.SearchHit{}, nil
		}
		return nil, fmt.Errorf("failed to search collection %s: %w", c.collection, err)
	}

	hits := make([]models.SearchHit, 0, len(resp.Result))
	for _, p := range resp.Result {
		hits = append(hits, models.SearchHit{
			Text:     p.Payload.Text,
			Metadata: models.CopyMetadata(p.Payload.Metadata),
			Score:    p.Score,
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Collection returns the collection name
func (c *Client) Collection() string {
	return c.collection
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
