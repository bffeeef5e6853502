package ingestion

import (
	"strings"

	"docchat-be/internal/pkg/apperrors"
)

// Chunker splits extracted text into retrieval-sized pieces. It prefers
// paragraph boundaries and falls back to fixed rune windows with overlap
// when a single paragraph exceeds the chunk budget. Splitting is
// deterministic: the same text always yields the same chunks, and every
// character of input appears in at least one chunk.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

func NewChunker(maxChunkSize, overlap int) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, apperrors.NewConfigurationError("max chunk size must be positive")
	}
	if overlap < 0 {
		return nil, apperrors.NewConfigurationError("chunk overlap must not be negative")
	}
	if overlap >= maxChunkSize {
		return nil, apperrors.NewConfigurationError("chunk overlap must be smaller than max chunk size")
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}, nil
}

func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	current := ""

	for _, paragraph := range splitParagraphs(text) {
		if runeLen(paragraph) > c.maxChunkSize {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			chunks = append(chunks, c.window(paragraph)...)
			continue
		}

		if current == "" {
			current = paragraph
			continue
		}

		if runeLen(current)+2+runeLen(paragraph) <= c.maxChunkSize {
			current = current + "\n\n" + paragraph
			continue
		}

		chunks = append(chunks, current)

		// Carry the tail of the flushed chunk forward as overlap, unless
		// doing so would blow the budget of the next chunk.
		carry := c.tail(current)
		if carry != "" && runeLen(carry)+2+runeLen(paragraph) <= c.maxChunkSize {
			current = carry + "\n\n" + paragraph
		} else {
			current = paragraph
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// window slices one oversized paragraph into rune windows of maxChunkSize
// advancing by maxChunkSize-overlap, so consecutive windows share overlap
// runes and no text is dropped.
func (c *Chunker) window(text string) []string {
	runes := []rune(text)
	step := c.maxChunkSize - c.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func (c *Chunker) tail(text string) string {
	if c.overlap == 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= c.overlap {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(runes[len(runes)-c.overlap:]))
}

func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, paragraph := range raw {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph != "" {
			out = append(out, paragraph)
		}
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
