package ingestion

import (
	"context"

	"docchat-be/internal/entity"
)

// Processor turns one staged file into its chunk list. Chunk ids and
// indices are assigned by the processor so the id sequence is contiguous
// per document.
type Processor interface {
	Kind() entity.DocumentKind
	Process(ctx context.Context, stagedPath, filename, documentId string) ([]entity.Chunk, error)
}

func newChunk(documentId, filename string, kind entity.DocumentKind, index int, text string) entity.Chunk {
	return entity.Chunk{
		ChunkId: entity.FormatChunkID(documentId, index),
		Index:   index,
		Text:    text,
		Metadata: map[string]interface{}{
			entity.MetaDocumentId: documentId,
			entity.MetaChunkIndex: index,
			entity.MetaLength:     len(text),
			entity.MetaFilename:   filename,
			entity.MetaKind:       string(kind),
		},
	}
}
