package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	Messages  []ChatMessage
	CreatedAt time.Time
}

type ChatMessage struct {
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}
