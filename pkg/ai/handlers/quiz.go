package handlers

import (
	"context"
	"strings"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/pkg/ai/router"
	"docchat-be/pkg/llm"
)

const (
	minQuizQuestions = 1
	maxQuizQuestions = 20
)

// QuizHandler generates multiple choice questions over one whole document.
// A per-request question count overrides the configured default, clamped to
// a sane range.
type QuizHandler struct {
	provider     llm.LLMProvider
	defaultCount int
}

var _ router.Handler = &QuizHandler{}

func NewQuizHandler(provider llm.LLMProvider, defaultCount int) *QuizHandler {
	return &QuizHandler{provider: provider, defaultCount: defaultCount}
}

func (h *QuizHandler) Mode() router.Mode {
	return router.ModeQuiz
}

func (h *QuizHandler) ContextKind() router.ContextKind {
	return router.ContextFullDocument
}

func (h *QuizHandler) Handle(ctx context.Context, req *router.Request, gathered *router.Context) (*router.Result, error) {
	if gathered.Document == nil {
		return &router.Result{
			Answer:   "Please specify an uploaded document to generate quiz questions.",
			Mode:     h.Mode(),
			Sources:  []entity.SearchHit{},
			Metadata: map[string]interface{}{},
		}, nil
	}
	if len(gathered.Document.Chunks) == 0 {
		return &router.Result{
			Answer:   "No document content found for quiz generation.",
			Mode:     h.Mode(),
			Sources:  []entity.SearchHit{},
			Metadata: map[string]interface{}{},
		}, nil
	}

	count := h.questionCount(req.QuizCount)
	prompt := buildQuizPrompt(documentText(gathered.Document), count)

	answer, err := h.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, apperrors.NewGenerationProviderError(err)
	}

	return &router.Result{
		Answer:  strings.TrimSpace(answer),
		Mode:    h.Mode(),
		Sources: []entity.SearchHit{},
		Metadata: map[string]interface{}{
			"document_id":   gathered.Document.Id,
			"num_questions": count,
		},
	}, nil
}

func (h *QuizHandler) questionCount(requested int) int {
	count := requested
	if count == 0 {
		count = h.defaultCount
	}
	if count < minQuizQuestions {
		count = minQuizQuestions
	}
	if count > maxQuizQuestions {
		count = maxQuizQuestions
	}
	return count
}
