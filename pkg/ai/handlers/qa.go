package handlers

import (
	"context"
	"strings"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/pkg/ai/router"
	"docchat-be/pkg/llm"
)

// Conversation turns carried into the prompt; older history is dropped.
const maxHistoryMessages = 10

const noContextAnswer = "I couldn't find relevant information in the uploaded documents to answer your question."

// QAHandler answers free-form questions over retrieved passages. It applies
// a second, narrower classification on top of routing: when the query reads
// like an analytics request and at least one retrieved chunk came from a
// tabular document, it switches to the analytics prompt.
type QAHandler struct {
	provider          llm.LLMProvider
	analyticsKeywords []string
}

var _ router.Handler = &QAHandler{}

func NewQAHandler(provider llm.LLMProvider, analyticsKeywords []string) *QAHandler {
	return &QAHandler{provider: provider, analyticsKeywords: analyticsKeywords}
}

func (h *QAHandler) Mode() router.Mode {
	return router.ModeQA
}

func (h *QAHandler) ContextKind() router.ContextKind {
	return router.ContextSearch
}

func (h *QAHandler) Handle(ctx context.Context, req *router.Request, gathered *router.Context) (*router.Result, error) {
	if len(gathered.Hits) == 0 {
		return &router.Result{
			Answer:  noContextAnswer,
			Mode:    h.Mode(),
			Sources: []entity.SearchHit{},
			Metadata: map[string]interface{}{
				"context_chunks_found": 0,
			},
		}, nil
	}

	analytics := router.MatchesAnalytics(req.Query, h.analyticsKeywords) && anyTabular(gathered.Hits)
	prompt := buildQAPrompt(req.Query, buildSourceBlock(gathered.Hits), analytics)

	messages := recentHistory(req.History)
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	answer, err := h.provider.Chat(ctx, messages)
	if err != nil {
		return nil, apperrors.NewGenerationProviderError(err)
	}

	return &router.Result{
		Answer:  strings.TrimSpace(answer),
		Mode:    h.Mode(),
		Sources: gathered.Hits,
		Metadata: map[string]interface{}{
			"context_chunks_found": len(gathered.Hits),
			"is_analytics_query":   analytics,
		},
	}, nil
}

func anyTabular(hits []entity.SearchHit) bool {
	for _, hit := range hits {
		if kind, ok := hit.Metadata[entity.MetaKind].(string); ok && kind == string(entity.KindTabular) {
			return true
		}
	}
	return false
}

func recentHistory(history []llm.Message) []llm.Message {
	if len(history) <= maxHistoryMessages {
		return append([]llm.Message(nil), history...)
	}
	return append([]llm.Message(nil), history[len(history)-maxHistoryMessages:]...)
}
