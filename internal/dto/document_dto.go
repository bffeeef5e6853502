package dto

import (
	"time"
)

type UploadDocumentResponse struct {
	DocumentId string                 `json:"document_id"`
	Filename   string                 `json:"filename"`
	Kind       string                 `json:"kind"`
	Status     string                 `json:"status"`
	ChunkCount int                    `json:"chunk_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// UploadBatchItem reports the per-file outcome of a multi-file upload.
// Failed files carry Error and no document payload.
type UploadBatchItem struct {
	Filename string                  `json:"filename"`
	Document *UploadDocumentResponse `json:"document,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Code     string                  `json:"code,omitempty"`
}

type DocumentSummaryResponse struct {
	DocumentId   string    `json:"document_id"`
	Filename     string    `json:"filename"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	RawSizeBytes int64     `json:"raw_size_bytes"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type IndexStatsResponse struct {
	TotalVectors      int64  `json:"total_vectors"`
	BackendKind       string `json:"backend_kind"`
	ApproxStorageSize int64  `json:"approx_storage_size"`
	TotalDocuments    int    `json:"total_documents"`
}
