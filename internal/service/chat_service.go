package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/ai/router"
	"docchat-be/pkg/llm"
)

const sourceSnippetRunes = 200

type IChatService interface {
	Send(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	History(ctx context.Context, sessionId uuid.UUID) ([]dto.ChatHistoryEntry, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

type chatService struct {
	router   *router.Router
	sessions *memory.SessionRepository
	log      logger.ILogger
}

func NewChatService(r *router.Router, sessions *memory.SessionRepository, log logger.ILogger) IChatService {
	return &chatService{
		router:   r,
		sessions: sessions,
		log:      log,
	}
}

func (s *chatService) Send(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	var session *entity.ChatSession
	var history []llm.Message

	if req.SessionId != nil {
		stored, ok := s.sessions.Get(req.SessionId.String())
		if !ok {
			return nil, apperrors.NewNotFoundError("chat session")
		}
		session = stored
		history = toLLMHistory(stored.Messages)
	}

	result, err := s.router.Execute(ctx, &router.Request{
		Query:         req.Query,
		RequestedMode: req.Mode,
		DocumentId:    req.DocumentId,
		TopK:          req.TopK,
		QuizCount:     req.QuizCount,
		History:       history,
	})
	if err != nil {
		return nil, err
	}

	if session != nil {
		now := time.Now()
		session.Messages = append(session.Messages,
			entity.ChatMessage{Role: "user", Content: req.Query, CreatedAt: now},
			entity.ChatMessage{Role: "assistant", Content: result.Answer, CreatedAt: now},
		)
		s.sessions.Save(session)
	}

	return &dto.SendChatResponse{
		Answer:   result.Answer,
		ModeUsed: string(result.Mode),
		Sources:  toSourceDTOs(result.Sources),
		Metadata: result.Metadata,
	}, nil
}

func (s *chatService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	session := &entity.ChatSession{
		Id:        uuid.New(),
		CreatedAt: time.Now(),
	}
	s.sessions.Save(session)

	s.log.Info("service.chat", "session created", map[string]interface{}{
		"session_id": session.Id.String(),
	})
	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *chatService) History(ctx context.Context, sessionId uuid.UUID) ([]dto.ChatHistoryEntry, error) {
	session, ok := s.sessions.Get(sessionId.String())
	if !ok {
		return nil, apperrors.NewNotFoundError("chat session")
	}

	out := make([]dto.ChatHistoryEntry, 0, len(session.Messages))
	for _, msg := range session.Messages {
		out = append(out, dto.ChatHistoryEntry{
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return out, nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	s.sessions.Delete(sessionId.String())
	return nil
}

func toLLMHistory(messages []entity.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func toSourceDTOs(hits []entity.SearchHit) []dto.SourceDTO {
	out := make([]dto.SourceDTO, 0, len(hits))
	for _, hit := range hits {
		documentId := ""
		if id, ok := hit.Metadata[entity.MetaDocumentId].(string); ok {
			documentId = id
		} else if parsed, _, err := entity.ParseChunkID(hit.ChunkId); err == nil {
			documentId = parsed
		}

		out = append(out, dto.SourceDTO{
			ChunkId:        hit.ChunkId,
			ContentSnippet: snippet(hit.Content),
			Score:          hit.Score,
			DocumentId:     documentId,
		})
	}
	return out
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= sourceSnippetRunes {
		return content
	}
	return string(runes[:sourceSnippetRunes]) + "..."
}
