package vectorindex

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/entity"
	"docchat-be/pkg/embedding"
)

type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.fail {
		return nil, fmt.Errorf("embedder down")
	}
	vector, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: vector},
	}, nil
}

func (s *stubEmbedder) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		resp, err := s.Generate(text, taskType)
		if err != nil {
			return nil, err
		}
		out[i] = resp.Embedding.Values
	}
	return out, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestEmbedder() *stubEmbedder {
	return &stubEmbedder{
		vectors: map[string][]float32{
			"alpha":       {1, 0, 0},
			"beta":        {0, 1, 0},
			"gamma":       {0, 0, 1},
			"near alpha":  {0.8, 0.6, 0},
			"query alpha": {1, 0, 0},
			"query beta":  {0, 1, 0},
		},
	}
}

func chunksFor(documentId string, texts ...string) []entity.Chunk {
	chunks := make([]entity.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = entity.Chunk{
			ChunkId: entity.FormatChunkID(documentId, i),
			Index:   i,
			Text:    text,
			Metadata: map[string]interface{}{
				entity.MetaDocumentId: documentId,
				entity.MetaChunkIndex: i,
			},
		}
	}
	return chunks
}

func TestLocalFileIndexUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	index, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	stored, err := index.Upsert(ctx, "doc-1", chunksFor("doc-1", "alpha", "near alpha", "beta"))
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	hits, err := index.Search(ctx, "query alpha", 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-1_chunk_0", hits[0].ChunkId)
	assert.Equal(t, "alpha", hits[0].Content)
	assert.Equal(t, "doc-1_chunk_1", hits[1].ChunkId)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestLocalFileIndexUpsertReplacesDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	index, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	_, err = index.Upsert(ctx, "doc-1", chunksFor("doc-1", "alpha", "beta"))
	require.NoError(t, err)

	// Re-ingesting the same document must not leave stale chunks behind.
	_, err = index.Upsert(ctx, "doc-1", chunksFor("doc-1", "gamma"))
	require.NoError(t, err)

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVectors)

	hits, err := index.Search(ctx, "query alpha", 10, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "gamma", hits[0].Content)
}

func TestLocalFileIndexFilterAppliesBeforeTopK(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	index, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	_, err = index.Upsert(ctx, "doc-a", chunksFor("doc-a", "alpha", "near alpha"))
	require.NoError(t, err)
	_, err = index.Upsert(ctx, "doc-b", chunksFor("doc-b", "beta", "gamma"))
	require.NoError(t, err)

	// doc-a chunks score far higher for this query; a post-hoc filter
	// would return an empty page for topK=1.
	hits, err := index.Search(ctx, "query alpha", 1, "doc-b")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-b_chunk_0", hits[0].ChunkId)
}

func TestLocalFileIndexTieBreakByChunkId(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	index, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	// Identical vectors, identical scores: order falls back to chunk id.
	_, err = index.Upsert(ctx, "doc-1", chunksFor("doc-1", "alpha", "alpha", "alpha"))
	require.NoError(t, err)

	hits, err := index.Search(ctx, "query alpha", 3, "")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "doc-1_chunk_0", hits[0].ChunkId)
	assert.Equal(t, "doc-1_chunk_1", hits[1].ChunkId)
	assert.Equal(t, "doc-1_chunk_2", hits[2].ChunkId)
}

func TestLocalFileIndexDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	index, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	_, err = index.Upsert(ctx, "doc-1", chunksFor("doc-1", "alpha"))
	require.NoError(t, err)
	_, err = index.Upsert(ctx, "doc-2", chunksFor("doc-2", "beta"))
	require.NoError(t, err)

	require.NoError(t, index.Delete(ctx, "doc-1"))

	hits, err := index.Search(ctx, "query alpha", 10, "")
	require.NoError(t, err)
	for _, hit := range hits {
		assert.NotEqual(t, "doc-1_chunk_0", hit.ChunkId)
	}

	// Deleting again, or deleting something never indexed, is a no-op.
	assert.NoError(t, index.Delete(ctx, "doc-1"))
	assert.NoError(t, index.Delete(ctx, "never-indexed"))

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVectors)
}

func TestLocalFileIndexPersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")

	first, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)
	_, err = first.Upsert(ctx, "doc-1", chunksFor("doc-1", "alpha", "beta"))
	require.NoError(t, err)

	reopened, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVectors)
	assert.Equal(t, KindLocal, stats.BackendKind)
	assert.Greater(t, stats.ApproxStorageSize, int64(0))

	hits, err := reopened.Search(ctx, "query beta", 1, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "beta", hits[0].Content)
}

func TestLocalFileIndexEmbedFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	embedder := newTestEmbedder()
	index, err := NewLocalFileIndex(path, embedder, nopLogger{})
	require.NoError(t, err)

	_, err = index.Upsert(ctx, "doc-1", chunksFor("doc-1", "alpha"))
	require.NoError(t, err)

	embedder.fail = true
	_, err = index.Upsert(ctx, "doc-2", chunksFor("doc-2", "beta"))
	require.Error(t, err)

	embedder.fail = false
	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVectors)
}

func TestLocalFileIndexEmptyUpsert(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.json")
	index, err := NewLocalFileIndex(path, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)

	stored, err := index.Upsert(ctx, "doc-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
}
