package entity

import (
	"time"
)

// ChunkEmbedding is the denormalized record the vector index owns: chunk
// text and metadata are copied in, not referenced, so index rows survive
// registry restarts independently.
type ChunkEmbedding struct {
	ChunkId        string
	DocumentId     string
	ChunkIndex     int
	Content        string
	EmbeddingValue []float32
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}
