package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata keys shared across chunkers, processors, and the index.
const (
	MetaDocumentId = "document_id"
	MetaChunkIndex = "chunk_index"
	MetaLength     = "length"
	MetaFilename   = "filename"
	MetaKind       = "kind"
	MetaPageNumber = "page_number"
	MetaColumnName = "column_name"
	MetaContent    = "content"
)

// Chunk is the atomic retrievable unit of a document.
type Chunk struct {
	ChunkId  string
	Index    int
	Text     string
	Metadata map[string]interface{}
}

const chunkIdSeparator = "_chunk_"

// FormatChunkID builds the wire-contract chunk identifier:
// "{document_id}_chunk_{index}". External consumers parse this back, so the
// format is stable.
func FormatChunkID(documentId string, index int) string {
	return documentId + chunkIdSeparator + strconv.Itoa(index)
}

// ParseChunkID recovers (document_id, index) from a chunk id. It splits on
// the LAST "_chunk_" occurrence so document ids that themselves contain the
// separator still round-trip.
func ParseChunkID(chunkId string) (string, int, error) {
	pos := strings.LastIndex(chunkId, chunkIdSeparator)
	if pos < 0 {
		return "", 0, fmt.Errorf("malformed chunk id: %s", chunkId)
	}
	index, err := strconv.Atoi(chunkId[pos+len(chunkIdSeparator):])
	if err != nil {
		return "", 0, fmt.Errorf("malformed chunk index in id %s: %w", chunkId, err)
	}
	return chunkId[:pos], index, nil
}
