package models

// DistanceMetric is the similarity function of a vector collection
type DistanceMetric string

const (
	DistanceCosine DistanceMetric = "Cosine"
	DistanceDot    DistanceMetric = "Dot"
	DistanceEuclid DistanceMetric = "Euclid"
)

// IndexPayload is the data stored alongside each vector
type IndexPayload struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// IndexEntry is one point in a vector collection.
// IDs are dense and 0-based within a single ingestion run.
type IndexEntry struct {
	ID      uint64       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload IndexPayload `json:"payload"`
}

// SearchHit is a single result of a similarity search
type SearchHit struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float32                `json:"score"`
}
