// Package semantic owns all Qdrant operations for the record vector index.
// cmd/indexer writes; the semantic retriever reads.
package semantic

// SearchResult is a single vector search hit over the record index.
type SearchResult struct {
	ID        string  `json:"id"`
	Score     float32 `json:"score"`
	Text      string  `json:"text"`
	Kind      string  `json:"kind"`
	ContactID string  `json:"contact_id"`
	CreatedAt int64   `json:"created_at"` // unix seconds, 0 for contacts
}

// IndexRecord is a single record vector to store.
type IndexRecord struct {
	ID        string
	Embedding []float32
	Text      string
	Kind      string
	ContactID string
	CreatedAt int64
}
