package contract

import (
	"context"

	"docchat-be/internal/entity"
)

// ScoredChunkEmbedding pairs an embedding row with its cosine similarity
// against a query vector.
type ScoredChunkEmbedding struct {
	Embedding  *entity.ChunkEmbedding
	Similarity float64
}

type ChunkEmbeddingRepository interface {
	// ReplaceByDocumentId swaps all rows of a document for the given set in
	// one transaction, so readers never observe old and new rows together.
	ReplaceByDocumentId(ctx context.Context, documentId string, embeddings []*entity.ChunkEmbedding) error
	DeleteByDocumentId(ctx context.Context, documentId string) error
	// SearchSimilarWithScore ranks rows by cosine similarity descending.
	// documentId == "" means no document filter; filtering happens in the
	// query, before the LIMIT, never after.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, documentId string) ([]*ScoredChunkEmbedding, error)
	Count(ctx context.Context) (int64, error)
	StorageSize(ctx context.Context) (int64, error)
}
