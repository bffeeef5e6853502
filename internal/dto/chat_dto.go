package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	Query      string     `json:"query" validate:"required"`
	Mode       string     `json:"mode,omitempty"`        // explicit handler override; empty = heuristic routing
	DocumentId string     `json:"document_id,omitempty"` // restricts retrieval to one document
	TopK       int        `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
	QuizCount  int        `json:"quiz_count,omitempty" validate:"omitempty,min=1,max=20"`
	SessionId  *uuid.UUID `json:"session_id,omitempty"`
}

type SourceDTO struct {
	ChunkId        string  `json:"chunk_id"`
	ContentSnippet string  `json:"content_snippet"`
	Score          float64 `json:"score"`
	DocumentId     string  `json:"document_id"`
}

type SendChatResponse struct {
	Answer   string                 `json:"answer"`
	ModeUsed string                 `json:"mode_used"`
	Sources  []SourceDTO            `json:"sources"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type ChatHistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
