package vectorindex

import (
	"context"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/contract"
	"docchat-be/pkg/embedding"
)

// PgVectorIndex is the remote backend: similarity ranking, filtering, and
// the top-k cutoff all run inside Postgres via the pgvector operator, so
// result semantics match the local backend without loading rows into memory.
type PgVectorIndex struct {
	repository contract.ChunkEmbeddingRepository
	embedder   embedding.EmbeddingProvider
	log        logger.ILogger
}

var _ Index = &PgVectorIndex{}

func NewPgVectorIndex(
	repository contract.ChunkEmbeddingRepository,
	embedder embedding.EmbeddingProvider,
	log logger.ILogger,
) *PgVectorIndex {
	return &PgVectorIndex{
		repository: repository,
		embedder:   embedder,
		log:        log,
	}
}

func (i *PgVectorIndex) Kind() string {
	return KindPgVector
}

func (i *PgVectorIndex) Upsert(ctx context.Context, documentId string, chunks []entity.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for idx, chunk := range chunks {
		texts[idx] = chunk.Text
	}

	// Embed the whole batch before touching storage so a provider failure
	// leaves no partial document behind.
	vectors, err := i.embedder.GenerateBatch(texts, embedding.TaskRetrievalDocument)
	if err != nil {
		return 0, apperrors.NewEmbeddingProviderError(err)
	}

	now := time.Now()
	rows := make([]*entity.ChunkEmbedding, len(chunks))
	for idx, chunk := range chunks {
		rows[idx] = &entity.ChunkEmbedding{
			ChunkId:        chunk.ChunkId,
			DocumentId:     documentId,
			ChunkIndex:     chunk.Index,
			Content:        chunk.Text,
			EmbeddingValue: vectors[idx],
			Metadata:       chunk.Metadata,
			CreatedAt:      now,
		}
	}

	// Replacing the document's rows transactionally gives re-upserts the
	// same semantics as the local backend: only the new chunk set survives.
	if err := i.repository.ReplaceByDocumentId(ctx, documentId, rows); err != nil {
		return 0, apperrors.NewIndexError("upsert", err)
	}

	i.log.Info("vectorindex.pgvector", "upserted document chunks", map[string]interface{}{
		"document_id": documentId,
		"chunks":      len(rows),
	})

	return len(rows), nil
}

func (i *PgVectorIndex) Search(ctx context.Context, query string, topK int, documentIdFilter string) ([]entity.SearchHit, error) {
	queryEmbedding, err := i.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, apperrors.NewEmbeddingProviderError(err)
	}

	scored, err := i.repository.SearchSimilarWithScore(ctx, queryEmbedding.Embedding.Values, topK, documentIdFilter)
	if err != nil {
		return nil, apperrors.NewIndexError("search", err)
	}

	hits := make([]entity.SearchHit, 0, len(scored))
	for _, row := range scored {
		hits = append(hits, entity.SearchHit{
			ChunkId:  row.Embedding.ChunkId,
			Content:  row.Embedding.Content,
			Metadata: row.Embedding.Metadata,
			Score:    row.Similarity,
		})
	}

	return hits, nil
}

func (i *PgVectorIndex) Delete(ctx context.Context, documentId string) error {
	if err := i.repository.DeleteByDocumentId(ctx, documentId); err != nil {
		return apperrors.NewIndexError("delete", err)
	}
	return nil
}

func (i *PgVectorIndex) Stats(ctx context.Context) (entity.IndexStats, error) {
	total, err := i.repository.Count(ctx)
	if err != nil {
		return entity.IndexStats{}, apperrors.NewIndexError("stats", err)
	}

	size, err := i.repository.StorageSize(ctx)
	if err != nil {
		return entity.IndexStats{}, apperrors.NewIndexError("stats", err)
	}

	return entity.IndexStats{
		TotalVectors:      total,
		BackendKind:       KindPgVector,
		ApproxStorageSize: size,
	}, nil
}
