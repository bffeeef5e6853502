package handlers

import (
	"context"
	"strings"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/pkg/ai/router"
	"docchat-be/pkg/llm"
)

// SummarizationHandler summarizes one whole document, so it consumes the
// registry's chunk list rather than a similarity search.
type SummarizationHandler struct {
	provider llm.LLMProvider
	maxWords int
}

var _ router.Handler = &SummarizationHandler{}

func NewSummarizationHandler(provider llm.LLMProvider, maxWords int) *SummarizationHandler {
	return &SummarizationHandler{provider: provider, maxWords: maxWords}
}

func (h *SummarizationHandler) Mode() router.Mode {
	return router.ModeSummarization
}

func (h *SummarizationHandler) ContextKind() router.ContextKind {
	return router.ContextFullDocument
}

func (h *SummarizationHandler) Handle(ctx context.Context, req *router.Request, gathered *router.Context) (*router.Result, error) {
	if gathered.Document == nil {
		return &router.Result{
			Answer:   "Please specify an uploaded document to generate a summary.",
			Mode:     h.Mode(),
			Sources:  []entity.SearchHit{},
			Metadata: map[string]interface{}{},
		}, nil
	}
	if len(gathered.Document.Chunks) == 0 {
		return &router.Result{
			Answer:   "No document content found for summarization.",
			Mode:     h.Mode(),
			Sources:  []entity.SearchHit{},
			Metadata: map[string]interface{}{},
		}, nil
	}

	prompt := buildSummaryPrompt(documentText(gathered.Document), h.maxWords)

	answer, err := h.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, apperrors.NewGenerationProviderError(err)
	}

	return &router.Result{
		Answer:  strings.TrimSpace(answer),
		Mode:    h.Mode(),
		Sources: []entity.SearchHit{},
		Metadata: map[string]interface{}{
			"document_id": gathered.Document.Id,
			"chunk_count": len(gathered.Document.Chunks),
		},
	}, nil
}
