package memory

import (
	"sort"
	"sync"

	"docchat-be/internal/entity"
)

// DocumentRegistry is the process-wide owner of Document records. Documents
// live only in memory; the vector index is the sole durable store.
//
// Lock discipline: a single RWMutex serializes mutations (including
// simultaneous ingest/delete of the same id) while allowing concurrent
// reads. Reads return copies so callers never observe a half-mutated record.
type DocumentRegistry struct {
	mu        sync.RWMutex
	documents map[string]*entity.Document
}

func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		documents: make(map[string]*entity.Document),
	}
}

func (r *DocumentRegistry) Save(doc *entity.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	copied.Chunks = append([]entity.Chunk(nil), doc.Chunks...)
	r.documents[doc.Id] = &copied
}

func (r *DocumentRegistry) Get(id string) (*entity.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, false
	}
	copied := *doc
	copied.Chunks = append([]entity.Chunk(nil), doc.Chunks...)
	return &copied, true
}

// UpdateStatus mutates only the status/error fields of an existing record.
// A no-op if the document was deleted concurrently.
func (r *DocumentRegistry) UpdateStatus(id string, status entity.DocumentStatus, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.documents[id]; ok {
		doc.Status = status
		doc.Error = errMsg
	}
}

func (r *DocumentRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return false
	}
	delete(r.documents, id)
	return true
}

// List returns all documents ordered by creation time, newest first.
func (r *DocumentRegistry) List() []*entity.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Document, 0, len(r.documents))
	for _, doc := range r.documents {
		copied := *doc
		copied.Chunks = append([]entity.Chunk(nil), doc.Chunks...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *DocumentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents)
}
