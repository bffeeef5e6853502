package handlers

import (
	"context"
	"strings"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/pkg/ai/router"
	"docchat-be/pkg/llm"
)

// AnalyticsHandler serves queries the top-level router classified as
// analytics. Unlike the QA handler's nested switch, it always uses the
// analytics prompt, whatever kinds of documents the hits came from.
type AnalyticsHandler struct {
	provider llm.LLMProvider
}

var _ router.Handler = &AnalyticsHandler{}

func NewAnalyticsHandler(provider llm.LLMProvider) *AnalyticsHandler {
	return &AnalyticsHandler{provider: provider}
}

func (h *AnalyticsHandler) Mode() router.Mode {
	return router.ModeAnalytics
}

func (h *AnalyticsHandler) ContextKind() router.ContextKind {
	return router.ContextSearch
}

func (h *AnalyticsHandler) Handle(ctx context.Context, req *router.Request, gathered *router.Context) (*router.Result, error) {
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

	prompt := buildQAPrompt(req.Query, buildSourceBlock(gathered.Hits), true)

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
		},
	}, nil
}
