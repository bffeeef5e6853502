package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/embedding"
)

type localRecord struct {
	ChunkId    string                 `json:"chunk_id"`
	DocumentId string                 `json:"document_id"`
	ChunkIndex int                    `json:"chunk_index"`
	Content    string                 `json:"content"`
	Embedding  []float32              `json:"embedding"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type localSnapshot struct {
	Records []localRecord `json:"records"`
}

// LocalFileIndex is the fallback backend: a brute-force cosine scan over an
// in-memory record list, persisted write-through to a JSON file. Every
// mutation rewrites the full snapshot to a temp file and renames it over the
// live one, so a crash mid-write never corrupts the store.
type LocalFileIndex struct {
	mu       sync.RWMutex
	path     string
	records  []localRecord
	embedder embedding.EmbeddingProvider
	log      logger.ILogger
}

var _ Index = &LocalFileIndex{}

func NewLocalFileIndex(path string, embedder embedding.EmbeddingProvider, log logger.ILogger) (*LocalFileIndex, error) {
	index := &LocalFileIndex{
		path:     path,
		embedder: embedder,
		log:      log,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return index, nil
	}
	if err != nil {
		return nil, apperrors.NewIndexError("load", err)
	}

	var snapshot localSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// Refuse to start over a snapshot we cannot parse. Silently
		// resetting would drop every previously indexed document.
		return nil, apperrors.NewIndexError("load", fmt.Errorf("corrupt snapshot %s: %w", path, err))
	}

	index.records = snapshot.Records
	return index, nil
}

func (i *LocalFileIndex) Kind() string {
	return KindLocal
}

func (i *LocalFileIndex) Upsert(ctx context.Context, documentId string, chunks []entity.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for idx, chunk := range chunks {
		texts[idx] = chunk.Text
	}

	// Embed before taking the lock or touching state; a provider failure
	// must leave the store exactly as it was.
	vectors, err := i.embedder.GenerateBatch(texts, embedding.TaskRetrievalDocument)
	if err != nil {
		return 0, apperrors.NewEmbeddingProviderError(err)
	}

	now := time.Now()
	fresh := make([]localRecord, len(chunks))
	for idx, chunk := range chunks {
		fresh[idx] = localRecord{
			ChunkId:    chunk.ChunkId,
			DocumentId: documentId,
			ChunkIndex: chunk.Index,
			Content:    chunk.Text,
			Embedding:  vectors[idx],
			Metadata:   chunk.Metadata,
			CreatedAt:  now,
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	previous := i.records
	kept := make([]localRecord, 0, len(previous)+len(fresh))
	for _, record := range previous {
		if record.DocumentId != documentId {
			kept = append(kept, record)
		}
	}
	i.records = append(kept, fresh...)

	if err := i.persistLocked(); err != nil {
		i.records = previous
		return 0, apperrors.NewIndexError("upsert", err)
	}

	i.log.Info("vectorindex.local", "upserted document chunks", map[string]interface{}{
		"document_id": documentId,
		"chunks":      len(fresh),
	})

	return len(fresh), nil
}

func (i *LocalFileIndex) Search(ctx context.Context, query string, topK int, documentIdFilter string) ([]entity.SearchHit, error) {
	queryEmbedding, err := i.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, apperrors.NewEmbeddingProviderError(err)
	}
	queryVector := queryEmbedding.Embedding.Values

	i.mu.RLock()
	defer i.mu.RUnlock()

	// Filter first, score everything that survives, then cut to topK.
	hits := make([]entity.SearchHit, 0)
	for _, record := range i.records {
		if documentIdFilter != "" && record.DocumentId != documentIdFilter {
			continue
		}
		hits = append(hits, entity.SearchHit{
			ChunkId:  record.ChunkId,
			Content:  record.Content,
			Metadata: record.Metadata,
			Score:    cosineSimilarity(queryVector, record.Embedding),
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ChunkId < hits[b].ChunkId
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (i *LocalFileIndex) Delete(ctx context.Context, documentId string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	previous := i.records
	kept := make([]localRecord, 0, len(previous))
	for _, record := range previous {
		if record.DocumentId != documentId {
			kept = append(kept, record)
		}
	}

	// Deleting an absent document is a no-op, including on disk.
	if len(kept) == len(previous) {
		return nil
	}

	i.records = kept
	if err := i.persistLocked(); err != nil {
		i.records = previous
		return apperrors.NewIndexError("delete", err)
	}
	return nil
}

func (i *LocalFileIndex) Stats(ctx context.Context) (entity.IndexStats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var size int64
	if info, err := os.Stat(i.path); err == nil {
		size = info.Size()
	}

	return entity.IndexStats{
		TotalVectors:      int64(len(i.records)),
		BackendKind:       KindLocal,
		ApproxStorageSize: size,
	}, nil
}

// persistLocked writes the current record set to a temp file in the target
// directory and renames it over the snapshot. Callers hold the write lock.
func (i *LocalFileIndex) persistLocked() error {
	data, err := json.Marshal(localSnapshot{Records: i.records})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(i.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(i.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, i.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// cosineSimilarity assumes both vectors are unit length, which every
// embedding provider in this codebase guarantees, so the dot product is the
// cosine. Mismatched lengths score zero instead of panicking.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for idx := range a {
		dot += float64(a[idx]) * float64(b[idx])
	}
	return dot
}
