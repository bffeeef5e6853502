package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/vectorindex"
)

var pdfMagic = []byte("%PDF-")

// Pipeline owns the upload path: size gate, format detection, staging,
// parsing, registry bookkeeping, and the index upsert. A parse failure
// registers the document as failed; an index failure registers it as
// processed_unindexed so indexing can be retried without re-parsing.
type Pipeline struct {
	maxFileBytes int64
	stagingDir   string
	registry     *memory.DocumentRegistry
	index        vectorindex.Index
	pdf          Processor
	tabular      Processor
	log          logger.ILogger
}

func NewPipeline(
	maxFileSizeMB int,
	stagingDir string,
	registry *memory.DocumentRegistry,
	index vectorindex.Index,
	pdf Processor,
	tabular Processor,
	log logger.ILogger,
) *Pipeline {
	return &Pipeline{
		maxFileBytes: int64(maxFileSizeMB) << 20,
		stagingDir:   stagingDir,
		registry:     registry,
		index:        index,
		pdf:          pdf,
		tabular:      tabular,
		log:          log,
	}
}

func (p *Pipeline) Ingest(ctx context.Context, filename string, content []byte) (*entity.Document, error) {
	// The size gate runs before any parsing work.
	if int64(len(content)) > p.maxFileBytes {
		return nil, apperrors.NewPayloadTooLargeError(int64(len(content)), p.maxFileBytes)
	}

	processor, err := p.resolveProcessor(filename, content)
	if err != nil {
		return nil, err
	}

	// The id exists before processing starts so every downstream artifact
	// (staged file, chunks, index rows, log lines) can reference it.
	documentId := uuid.NewString()

	doc := &entity.Document{
		Id:           documentId,
		Filename:     filename,
		Kind:         processor.Kind(),
		RawSizeBytes: int64(len(content)),
		CreatedAt:    time.Now(),
	}

	stagedPath, err := p.stage(documentId, filename, content)
	if err != nil {
		return nil, apperrors.NewIngestionError(documentId, filename, err)
	}
	defer func() {
		if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
			p.log.Warn("ingestion.pipeline", "failed to remove staged file", map[string]interface{}{
				"path":  stagedPath,
				"error": err.Error(),
			})
		}
	}()

	chunks, err := processor.Process(ctx, stagedPath, filename, documentId)
	if err != nil {
		doc.Status = entity.StatusFailed
		doc.Error = err.Error()
		p.registry.Save(doc)
		return nil, apperrors.NewIngestionError(documentId, filename, err)
	}
	doc.Chunks = chunks

	stored, err := p.index.Upsert(ctx, documentId, chunks)
	if err != nil {
		// Parsing succeeded, so the document is kept and the index write
		// can be retried later from the registered chunks.
		doc.Status = entity.StatusProcessedUnindexed
		doc.Error = err.Error()
		p.registry.Save(doc)
		p.log.Warn("ingestion.pipeline", "document parsed but not indexed", map[string]interface{}{
			"document_id": documentId,
			"filename":    filename,
			"error":       err.Error(),
		})
		return doc, nil
	}

	doc.Status = entity.StatusProcessed
	p.registry.Save(doc)
	p.log.Info("ingestion.pipeline", "document ingested", map[string]interface{}{
		"document_id": documentId,
		"filename":    filename,
		"kind":        string(doc.Kind),
		"chunks":      stored,
	})
	return doc, nil
}

// Reindex retries the index upsert for a document whose parse succeeded but
// whose index write did not. Documents in any other status are left alone.
func (p *Pipeline) Reindex(ctx context.Context, documentId string) error {
	doc, ok := p.registry.Get(documentId)
	if !ok {
		return apperrors.NewNotFoundError("document")
	}
	if doc.Status != entity.StatusProcessedUnindexed {
		return nil
	}

	if _, err := p.index.Upsert(ctx, documentId, doc.Chunks); err != nil {
		return err
	}

	p.registry.UpdateStatus(documentId, entity.StatusProcessed, "")
	p.log.Info("ingestion.pipeline", "document reindexed", map[string]interface{}{
		"document_id": documentId,
	})
	return nil
}

// resolveProcessor prefers content sniffing over the filename extension: a
// file that starts with the PDF magic is a PDF whatever it is called, and a
// .pdf without the magic is corrupt rather than unsupported.
func (p *Pipeline) resolveProcessor(filename string, content []byte) (Processor, error) {
	if bytes.HasPrefix(content, pdfMagic) {
		return p.pdf, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return p.tabular, nil
	case ".pdf":
		return nil, apperrors.NewCorruptInputError("pdf", errors.New("missing PDF header"))
	default:
		return nil, apperrors.NewUnsupportedFormatError(filename)
	}
}

func (p *Pipeline) stage(documentId, filename string, content []byte) (string, error) {
	if err := os.MkdirAll(p.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	stagedPath := filepath.Join(p.stagingDir, documentId+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(stagedPath, content, 0o644); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return stagedPath, nil
}
