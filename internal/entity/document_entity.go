package entity

import (
	"time"
)

// DocumentKind identifies the supported source formats.
type DocumentKind string

const (
	KindPDF     DocumentKind = "pdf"
	KindTabular DocumentKind = "tabular"
)

// DocumentStatus tracks the ingestion outcome.
// StatusProcessedUnindexed means parsing succeeded but the vector index
// upsert failed; indexing can be retried without re-parsing.
type DocumentStatus string

const (
	StatusProcessed          DocumentStatus = "processed"
	StatusProcessedUnindexed DocumentStatus = "processed_unindexed"
	StatusFailed             DocumentStatus = "failed"
)

// Document is the unit of ingestion. Owned exclusively by the in-memory
// registry; the vector index stores a denormalized copy of chunk text and
// metadata, not a reference.
type Document struct {
	Id           string
	Filename     string
	Kind         DocumentKind
	RawSizeBytes int64
	Chunks       []Chunk
	Status       DocumentStatus
	Error        string
	CreatedAt    time.Time
}
