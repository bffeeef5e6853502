package ingestion

import (
	"context"
	"errors"
	"strings"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
)

var errNoExtractableText = errors.New("no extractable text")

// PDFProcessor extracts text with the poppler pdftotext tool. Page breaks
// arrive as form feeds in the tool output, and each chunk records the page
// it came from.
type PDFProcessor struct {
	runner  CommandRunner
	chunker *Chunker
}

var _ Processor = &PDFProcessor{}

func NewPDFProcessor(runner CommandRunner, chunker *Chunker) *PDFProcessor {
	return &PDFProcessor{runner: runner, chunker: chunker}
}

func (p *PDFProcessor) Kind() entity.DocumentKind {
	return entity.KindPDF
}

func (p *PDFProcessor) Process(ctx context.Context, stagedPath, filename, documentId string) ([]entity.Chunk, error) {
	out, err := p.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", "-layout", stagedPath, "-")
	if err != nil {
		return nil, apperrors.NewCorruptInputError("pdf", err)
	}

	text := string(out)
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewCorruptInputError("pdf", errNoExtractableText)
	}

	var chunks []entity.Chunk
	index := 0
	for pageOffset, pageText := range strings.Split(text, "\f") {
		for _, piece := range p.chunker.Split(pageText) {
			chunk := newChunk(documentId, filename, entity.KindPDF, index, piece)
			chunk.Metadata[entity.MetaPageNumber] = pageOffset + 1
			chunks = append(chunks, chunk)
			index++
		}
	}
	return chunks, nil
}
