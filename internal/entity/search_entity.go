package entity

// SearchHit is one result of a similarity search, backend-agnostic.
// Score is cosine similarity; higher is better.
type SearchHit struct {
	ChunkId  string
	Content  string
	Metadata map[string]interface{}
	Score    float64
}

// IndexStats describes the current state of the vector index.
type IndexStats struct {
	TotalVectors      int64
	BackendKind       string
	ApproxStorageSize int64
}
