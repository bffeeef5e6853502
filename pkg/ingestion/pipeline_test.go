package ingestion

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/repository/memory"
)

type fakeIndex struct {
	upserts map[string][]entity.Chunk
	deleted []string
	fail    bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserts: map[string][]entity.Chunk{}}
}

func (f *fakeIndex) Upsert(_ context.Context, documentId string, chunks []entity.Chunk) (int, error) {
	if f.fail {
		return 0, fmt.Errorf("index unreachable")
	}
	f.upserts[documentId] = chunks
	return len(chunks), nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int, _ string) ([]entity.SearchHit, error) {
	return nil, nil
}

func (f *fakeIndex) Delete(_ context.Context, documentId string) error {
	f.deleted = append(f.deleted, documentId)
	delete(f.upserts, documentId)
	return nil
}

func (f *fakeIndex) Stats(_ context.Context) (entity.IndexStats, error) {
	return entity.IndexStats{}, nil
}

func (f *fakeIndex) Kind() string { return "fake" }

type pipelineLogger struct{}

func (pipelineLogger) Debug(module, message string, details map[string]interface{}) {}
func (pipelineLogger) Info(module, message string, details map[string]interface{})  {}
func (pipelineLogger) Warn(module, message string, details map[string]interface{})  {}
func (pipelineLogger) Error(module, message string, details map[string]interface{}) {}
func (pipelineLogger) Sync() error                                                  { return nil }

func newTestPipeline(t *testing.T, index *fakeIndex) (*Pipeline, *memory.DocumentRegistry, string) {
	t.Helper()
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)

	stagingDir := t.TempDir()
	registry := memory.NewDocumentRegistry()
	pipeline := NewPipeline(
		1, // 1 MB cap keeps the size-gate test cheap
		stagingDir,
		registry,
		index,
		NewPDFProcessor(&mockRunner{output: []byte("some extracted text")}, chunker),
		NewCSVProcessor(chunker, 5),
		pipelineLogger{},
	)
	return pipeline, registry, stagingDir
}

func TestPipelineIngestCSV(t *testing.T) {
	index := newFakeIndex()
	pipeline, registry, stagingDir := newTestPipeline(t, index)

	doc, err := pipeline.Ingest(context.Background(), "sales.csv", []byte("region,revenue\nnorth,100\n"))
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, entity.KindTabular, doc.Kind)
	assert.Equal(t, entity.StatusProcessed, doc.Status)
	assert.NotEmpty(t, doc.Chunks)
	assert.Equal(t, doc.Chunks, index.upserts[doc.Id])

	saved, ok := registry.Get(doc.Id)
	require.True(t, ok)
	assert.Equal(t, entity.StatusProcessed, saved.Status)

	// The staged copy is removed once ingestion finishes.
	entries, err := os.ReadDir(stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPipelineIngestPDFBySniffedMagic(t *testing.T) {
	index := newFakeIndex()
	pipeline, _, _ := newTestPipeline(t, index)

	// Content wins over the extension: PDF magic in a .csv-named file.
	doc, err := pipeline.Ingest(context.Background(), "mislabeled.csv", []byte("%PDF-1.7 rest of file"))
	require.NoError(t, err)
	assert.Equal(t, entity.KindPDF, doc.Kind)
	assert.Equal(t, entity.StatusProcessed, doc.Status)
}

func TestPipelineRejectsOversizedPayload(t *testing.T) {
	index := newFakeIndex()
	pipeline, registry, _ := newTestPipeline(t, index)

	payload := make([]byte, 2<<20)
	_, err := pipeline.Ingest(context.Background(), "big.csv", payload)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", appErr.Code)

	// Rejected before any registration happened.
	assert.Equal(t, 0, registry.Count())
	assert.Empty(t, index.upserts)
}

func TestPipelineRejectsUnsupportedFormat(t *testing.T) {
	index := newFakeIndex()
	pipeline, _, _ := newTestPipeline(t, index)

	_, err := pipeline.Ingest(context.Background(), "notes.txt", []byte("plain text"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNSUPPORTED_FORMAT", appErr.Code)
}

func TestPipelineRejectsPDFWithoutMagic(t *testing.T) {
	index := newFakeIndex()
	pipeline, _, _ := newTestPipeline(t, index)

	_, err := pipeline.Ingest(context.Background(), "fake.pdf", []byte("not a pdf at all"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CORRUPT_INPUT", appErr.Code)
}

func TestPipelineRegistersFailedParse(t *testing.T) {
	index := newFakeIndex()
	pipeline, registry, _ := newTestPipeline(t, index)

	_, err := pipeline.Ingest(context.Background(), "empty.csv", []byte(""))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INGESTION_ERROR", appErr.Code)

	docs := registry.List()
	require.Len(t, docs, 1)
	assert.Equal(t, entity.StatusFailed, docs[0].Status)
	assert.NotEmpty(t, docs[0].Error)
	assert.Empty(t, index.upserts)
}

func TestPipelineKeepsDocumentWhenIndexingFails(t *testing.T) {
	index := newFakeIndex()
	index.fail = true
	pipeline, registry, _ := newTestPipeline(t, index)

	doc, err := pipeline.Ingest(context.Background(), "sales.csv", []byte("region,revenue\nnorth,100\n"))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessedUnindexed, doc.Status)

	saved, ok := registry.Get(doc.Id)
	require.True(t, ok)
	assert.Equal(t, entity.StatusProcessedUnindexed, saved.Status)
	assert.NotEmpty(t, saved.Chunks)
}

func TestPipelineReindex(t *testing.T) {
	index := newFakeIndex()
	index.fail = true
	pipeline, registry, _ := newTestPipeline(t, index)

	doc, err := pipeline.Ingest(context.Background(), "sales.csv", []byte("region,revenue\nnorth,100\n"))
	require.NoError(t, err)
	require.Equal(t, entity.StatusProcessedUnindexed, doc.Status)

	// Retry once the index is reachable again; no re-parse involved.
	index.fail = false
	require.NoError(t, pipeline.Reindex(context.Background(), doc.Id))

	saved, ok := registry.Get(doc.Id)
	require.True(t, ok)
	assert.Equal(t, entity.StatusProcessed, saved.Status)
	assert.Equal(t, len(saved.Chunks), len(index.upserts[doc.Id]))
}

func TestPipelineReindexIsNoOpForHealthyDocuments(t *testing.T) {
	index := newFakeIndex()
	pipeline, _, _ := newTestPipeline(t, index)

	doc, err := pipeline.Ingest(context.Background(), "sales.csv", []byte("region,revenue\nnorth,100\n"))
	require.NoError(t, err)

	upsertsBefore := len(index.upserts[doc.Id])
	require.NoError(t, pipeline.Reindex(context.Background(), doc.Id))
	assert.Equal(t, upsertsBefore, len(index.upserts[doc.Id]))
}

func TestPipelineReindexUnknownDocument(t *testing.T) {
	index := newFakeIndex()
	pipeline, _, _ := newTestPipeline(t, index)

	err := pipeline.Reindex(context.Background(), "missing")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
