package vectorindex

import (
	"context"

	"docchat-be/internal/entity"
)

// Backend kinds reported by Stats and used in configuration.
const (
	KindPgVector = "pgvector"
	KindLocal    = "local"
)

// Index is the retrieval surface both backends implement. Upsert embeds and
// stores a document's chunks as one unit: either every chunk lands or none
// does. Delete is idempotent. Search applies the document filter before the
// top-k cutoff and orders by score descending with chunk id ascending as the
// tie break.
type Index interface {
	Upsert(ctx context.Context, documentId string, chunks []entity.Chunk) (int, error)
	Search(ctx context.Context, query string, topK int, documentIdFilter string) ([]entity.SearchHit, error)
	Delete(ctx context.Context, documentId string) error
	Stats(ctx context.Context) (entity.IndexStats, error)
	Kind() string
}
