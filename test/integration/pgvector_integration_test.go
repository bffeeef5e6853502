package integration

import (
	"context"
	"hash/fnv"
	"log"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/implementation"
	"docchat-be/pkg/database"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/vectorindex"
)

// hashEmbedder produces deterministic unit vectors from text so the round
// trip through pgvector can be verified without a live embedding provider.
type hashEmbedder struct{}

func (hashEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: hashVector(text)},
	}, nil
}

func (hashEmbedder) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, 768)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>32)) / float32(math.MaxInt32)
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

func TestPgVectorIndexRoundTrip(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err, "Failed to connect to DB")

	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(&model.ChunkEmbedding{}))

	repository := implementation.NewChunkEmbeddingRepository(db)
	index := vectorindex.NewPgVectorIndex(repository, hashEmbedder{}, testLogger{})

	ctx := context.Background()
	documentId := uuid.New().String()
	defer func() {
		assert.NoError(t, index.Delete(ctx, documentId))
	}()

	chunks := []entity.Chunk{
		{
			ChunkId: entity.FormatChunkID(documentId, 0),
			Index:   0,
			Text:    "Quarterly revenue grew twelve percent year over year.",
			Metadata: map[string]interface{}{
				entity.MetaDocumentId: documentId,
				entity.MetaChunkIndex: 0,
			},
		},
		{
			ChunkId: entity.FormatChunkID(documentId, 1),
			Index:   1,
			Text:    "The operations team relocated to the Lisbon office in March.",
			Metadata: map[string]interface{}{
				entity.MetaDocumentId: documentId,
				entity.MetaChunkIndex: 1,
			},
		},
	}

	stored, err := index.Upsert(ctx, documentId, chunks)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	t.Run("exact text ranks first", func(t *testing.T) {
		hits, err := index.Search(ctx, chunks[0].Text, 2, documentId)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, chunks[0].ChunkId, hits[0].ChunkId)
		assert.InDelta(t, 1.0, hits[0].Score, 0.001)
	})

	t.Run("re-upsert replaces prior rows", func(t *testing.T) {
		stored, err := index.Upsert(ctx, documentId, chunks[:1])
		require.NoError(t, err)
		assert.Equal(t, 1, stored)

		hits, err := index.Search(ctx, chunks[1].Text, 5, documentId)
		require.NoError(t, err)
		for _, hit := range hits {
			assert.NotEqual(t, chunks[1].ChunkId, hit.ChunkId)
		}
	})

	t.Run("stats report stored chunks", func(t *testing.T) {
		stats, err := index.Stats(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.TotalVectors, int64(1))
		t.Logf("vector count: %d, approx storage: %d bytes", stats.TotalVectors, stats.ApproxStorageSize)
	})
}
