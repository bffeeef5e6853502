package router

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/repository/memory"
)

type fakeHandler struct {
	mode     Mode
	kind     ContextKind
	gathered *Context
	fail     bool
}

func (f *fakeHandler) Mode() Mode               { return f.mode }
func (f *fakeHandler) ContextKind() ContextKind { return f.kind }

func (f *fakeHandler) Handle(_ context.Context, req *Request, gathered *Context) (*Result, error) {
	f.gathered = gathered
	if f.fail {
		return nil, fmt.Errorf("provider exploded: secret internal detail")
	}
	return &Result{
		Answer:   "answer from " + string(f.mode),
		Mode:     f.mode,
		Sources:  gathered.Hits,
		Metadata: map[string]interface{}{},
	}, nil
}

type routerFakeIndex struct {
	hits     []entity.SearchHit
	fail     bool
	lastTopK int
	lastDoc  string
}

func (f *routerFakeIndex) Upsert(_ context.Context, _ string, chunks []entity.Chunk) (int, error) {
	return len(chunks), nil
}

func (f *routerFakeIndex) Search(_ context.Context, _ string, topK int, documentIdFilter string) ([]entity.SearchHit, error) {
	f.lastTopK = topK
	f.lastDoc = documentIdFilter
	if f.fail {
		return nil, fmt.Errorf("index offline")
	}
	return f.hits, nil
}

func (f *routerFakeIndex) Delete(_ context.Context, _ string) error { return nil }

func (f *routerFakeIndex) Stats(_ context.Context) (entity.IndexStats, error) {
	return entity.IndexStats{}, nil
}

func (f *routerFakeIndex) Kind() string { return "fake" }

type routerLogger struct{}

func (routerLogger) Debug(module, message string, details map[string]interface{}) {}
func (routerLogger) Info(module, message string, details map[string]interface{})  {}
func (routerLogger) Warn(module, message string, details map[string]interface{})  {}
func (routerLogger) Error(module, message string, details map[string]interface{}) {}
func (routerLogger) Sync() error                                                  { return nil }

func newTestRouter(index *routerFakeIndex, registry *memory.DocumentRegistry) (*Router, map[Mode]*fakeHandler) {
	handlers := map[Mode]*fakeHandler{
		ModeQA:            {mode: ModeQA, kind: ContextSearch},
		ModeSummarization: {mode: ModeSummarization, kind: ContextFullDocument},
		ModeQuiz:          {mode: ModeQuiz, kind: ContextFullDocument},
		ModeAnalytics:     {mode: ModeAnalytics, kind: ContextSearch},
	}

	r := NewRouter(
		[]Handler{handlers[ModeQA], handlers[ModeSummarization], handlers[ModeQuiz], handlers[ModeAnalytics]},
		[]string{"summarize", "summary", "key points"},
		[]string{"quiz", "questions", "mcq"},
		[]string{"kpi", "trend", "anomaly"},
		index,
		registry,
		5,
		routerLogger{},
	)
	return r, handlers
}

func TestRouterKeywordClassification(t *testing.T) {
	tests := []struct {
		query string
		want  Mode
	}{
		{"Summarize this document", ModeSummarization},
		{"Give me the KEY POINTS please", ModeSummarization},
		{"Generate quiz questions", ModeQuiz},
		{"Show me revenue trends", ModeAnalytics},
		{"What is the capital of France?", ModeQA},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			router, _ := newTestRouter(&routerFakeIndex{}, memory.NewDocumentRegistry())
			result, err := router.Execute(context.Background(), &Request{Query: tc.query})
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Mode)
		})
	}
}

func TestRouterPriorityOrderBreaksTies(t *testing.T) {
	router, _ := newTestRouter(&routerFakeIndex{}, memory.NewDocumentRegistry())

	// Matches both the summary and quiz keyword sets; the first rule wins.
	result, err := router.Execute(context.Background(), &Request{Query: "summarize the quiz results"})
	require.NoError(t, err)
	assert.Equal(t, ModeSummarization, result.Mode)
}

func TestRouterExplicitModeOverridesHeuristic(t *testing.T) {
	router, _ := newTestRouter(&routerFakeIndex{}, memory.NewDocumentRegistry())

	result, err := router.Execute(context.Background(), &Request{
		Query:         "Summarize",
		RequestedMode: "mcq",
	})
	require.NoError(t, err)
	assert.Equal(t, ModeQuiz, result.Mode)
}

func TestRouterRejectsUnknownMode(t *testing.T) {
	router, _ := newTestRouter(&routerFakeIndex{}, memory.NewDocumentRegistry())

	_, err := router.Execute(context.Background(), &Request{
		Query:         "anything",
		RequestedMode: "poetry",
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_MODE", appErr.Code)
}

func TestRouterGathersSearchContext(t *testing.T) {
	index := &routerFakeIndex{hits: []entity.SearchHit{{ChunkId: "doc-1_chunk_0", Content: "hit"}}}
	router, handlers := newTestRouter(index, memory.NewDocumentRegistry())

	result, err := router.Execute(context.Background(), &Request{
		Query:      "what changed last year",
		DocumentId: "doc-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, index.lastTopK, "default top-k applies when the request leaves it unset")
	assert.Equal(t, "doc-1", index.lastDoc)
	require.NotNil(t, handlers[ModeQA].gathered)
	assert.Equal(t, index.hits, handlers[ModeQA].gathered.Hits)
	assert.Equal(t, index.hits, result.Sources)
}

func TestRouterHonorsRequestTopK(t *testing.T) {
	index := &routerFakeIndex{}
	router, _ := newTestRouter(index, memory.NewDocumentRegistry())

	_, err := router.Execute(context.Background(), &Request{Query: "anything", TopK: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, index.lastTopK)
}

func TestRouterGathersFullDocumentContext(t *testing.T) {
	registry := memory.NewDocumentRegistry()
	registry.Save(&entity.Document{
		Id:        "doc-9",
		Filename:  "report.pdf",
		Status:    entity.StatusProcessed,
		Chunks:    []entity.Chunk{{ChunkId: "doc-9_chunk_0", Text: "content"}},
		CreatedAt: time.Now(),
	})

	router, handlers := newTestRouter(&routerFakeIndex{}, registry)

	_, err := router.Execute(context.Background(), &Request{
		Query:      "summarize this",
		DocumentId: "doc-9",
	})
	require.NoError(t, err)

	gathered := handlers[ModeSummarization].gathered
	require.NotNil(t, gathered)
	require.NotNil(t, gathered.Document)
	assert.Equal(t, "doc-9", gathered.Document.Id)
}

func TestRouterFullDocumentContextMissingDocument(t *testing.T) {
	router, handlers := newTestRouter(&routerFakeIndex{}, memory.NewDocumentRegistry())

	_, err := router.Execute(context.Background(), &Request{
		Query:      "summarize this",
		DocumentId: "nope",
	})
	require.NoError(t, err)

	gathered := handlers[ModeSummarization].gathered
	require.NotNil(t, gathered)
	assert.Nil(t, gathered.Document)
}

func TestRouterConvertsHandlerFailure(t *testing.T) {
	router, handlers := newTestRouter(&routerFakeIndex{}, memory.NewDocumentRegistry())
	handlers[ModeQA].fail = true

	result, err := router.Execute(context.Background(), &Request{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, true, result.Metadata["errored"])
	assert.NotContains(t, result.Answer, "secret internal detail")
	assert.Equal(t, ModeQA, result.Mode)
}

func TestRouterConvertsSearchFailure(t *testing.T) {
	index := &routerFakeIndex{fail: true}
	router, _ := newTestRouter(index, memory.NewDocumentRegistry())

	result, err := router.Execute(context.Background(), &Request{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, true, result.Metadata["errored"])
	assert.NotContains(t, result.Answer, "index offline")
}
