package service

import (
	"context"
	"errors"
	"fmt"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/events"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/ingestion"
	"docchat-be/pkg/vectorindex"
)

// MaxBatchUploadFiles bounds one multi-file upload request.
const MaxBatchUploadFiles = 10

// UploadFile is one file of a batch upload.
type UploadFile struct {
	Filename string
	Content  []byte
}

type IDocumentService interface {
	Upload(ctx context.Context, filename string, content []byte) (*dto.UploadDocumentResponse, error)
	UploadMultiple(ctx context.Context, files []UploadFile) ([]dto.UploadBatchItem, error)
	List(ctx context.Context) []dto.DocumentSummaryResponse
	Get(ctx context.Context, documentId string) (*dto.DocumentSummaryResponse, error)
	Delete(ctx context.Context, documentId string) error
	Reindex(ctx context.Context, documentId string) error
	Stats(ctx context.Context) (*dto.IndexStatsResponse, error)
}

type documentService struct {
	pipeline  *ingestion.Pipeline
	registry  *memory.DocumentRegistry
	index     vectorindex.Index
	publisher *events.ReindexPublisher
	log       logger.ILogger
}

func NewDocumentService(
	pipeline *ingestion.Pipeline,
	registry *memory.DocumentRegistry,
	index vectorindex.Index,
	publisher *events.ReindexPublisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		pipeline:  pipeline,
		registry:  registry,
		index:     index,
		publisher: publisher,
		log:       log,
	}
}

func (s *documentService) Upload(ctx context.Context, filename string, content []byte) (*dto.UploadDocumentResponse, error) {
	doc, err := s.pipeline.Ingest(ctx, filename, content)
	if err != nil {
		return nil, err
	}

	// Parsed but unindexed documents get an async retry queued right away.
	if doc.Status == entity.StatusProcessedUnindexed {
		if err := s.publisher.Publish(doc.Id); err != nil {
			s.log.Warn("service.document", "failed to queue reindex", map[string]interface{}{
				"document_id": doc.Id,
				"error":       err.Error(),
			})
		}
	}

	return toUploadResponse(doc), nil
}

func (s *documentService) UploadMultiple(ctx context.Context, files []UploadFile) ([]dto.UploadBatchItem, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("no files provided")
	}
	if len(files) > MaxBatchUploadFiles {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d files per upload", MaxBatchUploadFiles))
	}

	// Files are independent: one bad file fails its own slot, not the batch.
	items := make([]dto.UploadBatchItem, 0, len(files))
	for _, file := range files {
		item := dto.UploadBatchItem{Filename: file.Filename}

		res, err := s.Upload(ctx, file.Filename, file.Content)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				item.Error = appErr.Message
				item.Code = appErr.Code
			} else {
				item.Error = "upload failed"
			}
		} else {
			item.Document = res
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *documentService) List(ctx context.Context) []dto.DocumentSummaryResponse {
	docs := s.registry.List()
	out := make([]dto.DocumentSummaryResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toSummaryResponse(doc))
	}
	return out
}

func (s *documentService) Get(ctx context.Context, documentId string) (*dto.DocumentSummaryResponse, error) {
	doc, ok := s.registry.Get(documentId)
	if !ok {
		return nil, apperrors.NewNotFoundError("document")
	}
	res := toSummaryResponse(doc)
	return &res, nil
}

// Delete removes the document from the registry and cascades into the
// index. Deleting an unknown id is a silent no-op.
func (s *documentService) Delete(ctx context.Context, documentId string) error {
	if err := s.index.Delete(ctx, documentId); err != nil {
		return err
	}

	if s.registry.Delete(documentId) {
		s.log.Info("service.document", "document deleted", map[string]interface{}{
			"document_id": documentId,
		})
	}
	return nil
}

func (s *documentService) Reindex(ctx context.Context, documentId string) error {
	doc, ok := s.registry.Get(documentId)
	if !ok {
		return apperrors.NewNotFoundError("document")
	}
	if doc.Status != entity.StatusProcessedUnindexed {
		return nil
	}
	return s.publisher.Publish(documentId)
}

func (s *documentService) Stats(ctx context.Context) (*dto.IndexStatsResponse, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.IndexStatsResponse{
		TotalVectors:      stats.TotalVectors,
		BackendKind:       stats.BackendKind,
		ApproxStorageSize: stats.ApproxStorageSize,
		TotalDocuments:    s.registry.Count(),
	}, nil
}

func toUploadResponse(doc *entity.Document) *dto.UploadDocumentResponse {
	return &dto.UploadDocumentResponse{
		DocumentId: doc.Id,
		Filename:   doc.Filename,
		Kind:       string(doc.Kind),
		Status:     string(doc.Status),
		ChunkCount: len(doc.Chunks),
	}
}

func toSummaryResponse(doc *entity.Document) dto.DocumentSummaryResponse {
	return dto.DocumentSummaryResponse{
		DocumentId:   doc.Id,
		Filename:     doc.Filename,
		Kind:         string(doc.Kind),
		Status:       string(doc.Status),
		RawSizeBytes: doc.RawSizeBytes,
		ChunkCount:   len(doc.Chunks),
		CreatedAt:    doc.CreatedAt,
	}
}
