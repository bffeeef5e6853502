package router

import (
	"context"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/vectorindex"
)

// Mode identifies a handler. The values are the wire names clients pass as
// an explicit mode override.
type Mode string

const (
	ModeQA            Mode = "qa"
	ModeSummarization Mode = "summarization"
	ModeQuiz          Mode = "mcq"
	ModeAnalytics     Mode = "analytics"
)

type state string

const (
	stateStart           state = "start"
	stateModeSelected    state = "mode_selected"
	stateContextGathered state = "context_gathered"
	stateHandled         state = "handled"
	stateDone            state = "done"
	stateErrored         state = "errored"
)

// ContextKind tells the router what grounding a handler needs before it is
// invoked: a similarity search, or every chunk of one document.
type ContextKind int

const (
	ContextSearch ContextKind = iota
	ContextFullDocument
)

// Request is one routed query.
type Request struct {
	Query         string
	RequestedMode string
	DocumentId    string
	TopK          int
	QuizCount     int
	History       []llm.Message
}

// Context is the grounding gathered for the selected handler. Hits is set
// for search-backed handlers; Document for full-document handlers, and is
// nil when no document was scoped or the scoped one does not exist.
type Context struct {
	Hits     []entity.SearchHit
	Document *entity.Document
}

// Result is the structured outcome every handler produces.
type Result struct {
	Answer   string
	Mode     Mode
	Sources  []entity.SearchHit
	Metadata map[string]interface{}
}

// Handler is one specialized response generator. Handle must be a pure
// function of the request, the gathered context, and the generation
// provider's output.
type Handler interface {
	Mode() Mode
	ContextKind() ContextKind
	Handle(ctx context.Context, req *Request, gathered *Context) (*Result, error)
}

type classifierRule struct {
	keywords []string
	mode     Mode
}

// Router runs the per-query state machine: start, mode_selected,
// context_gathered, handled, done, with errored absorbing any failure past
// mode selection. Each query traverses the machine exactly once.
type Router struct {
	handlers    map[Mode]Handler
	rules       []classifierRule
	index       vectorindex.Index
	registry    *memory.DocumentRegistry
	topKDefault int
	log         logger.ILogger
}

// NewRouter wires the handler set and the keyword classifier. Rule order is
// the fixed priority: summarization, quiz, analytics, with question
// answering as the default when nothing matches.
func NewRouter(
	handlers []Handler,
	summaryKeywords, quizKeywords, analyticsKeywords []string,
	index vectorindex.Index,
	registry *memory.DocumentRegistry,
	topKDefault int,
	log logger.ILogger,
) *Router {
	byMode := make(map[Mode]Handler, len(handlers))
	for _, h := range handlers {
		byMode[h.Mode()] = h
	}

	return &Router{
		handlers: byMode,
		rules: []classifierRule{
			{keywords: lowerAll(summaryKeywords), mode: ModeSummarization},
			{keywords: lowerAll(quizKeywords), mode: ModeQuiz},
			{keywords: lowerAll(analyticsKeywords), mode: ModeAnalytics},
		},
		index:       index,
		registry:    registry,
		topKDefault: topKDefault,
		log:         log,
	}
}

// Execute runs one query through the state machine. An unknown explicit
// mode is the caller's mistake and returns InvalidModeError; any failure
// after mode selection lands in the errored state and is converted into a
// uniform result so provider internals never reach the client.
func (r *Router) Execute(ctx context.Context, req *Request) (*Result, error) {
	current := stateStart

	var (
		handler  Handler
		gathered *Context
		result   *Result
	)

	for current != stateDone && current != stateErrored {
		switch current {
		case stateStart:
			mode, err := r.selectMode(req)
			if err != nil {
				return nil, err
			}
			handler = r.handlers[mode]
			current = stateModeSelected

		case stateModeSelected:
			var err error
			gathered, err = r.gatherContext(ctx, handler, req)
			if err != nil {
				r.logFailure(handler.Mode(), "context gathering failed", err)
				current = stateErrored
				continue
			}
			current = stateContextGathered

		case stateContextGathered:
			var err error
			result, err = handler.Handle(ctx, req, gathered)
			if err != nil {
				r.logFailure(handler.Mode(), "handler failed", err)
				current = stateErrored
				continue
			}
			current = stateHandled

		case stateHandled:
			current = stateDone
		}
	}

	if current == stateErrored {
		return erroredResult(handler.Mode()), nil
	}
	return result, nil
}

// selectMode honors an explicit mode verbatim and otherwise classifies by
// case-insensitive substring match. The first rule that matches wins
// regardless of how many keywords matched.
func (r *Router) selectMode(req *Request) (Mode, error) {
	if req.RequestedMode != "" {
		mode := Mode(req.RequestedMode)
		if _, ok := r.handlers[mode]; !ok {
			return "", apperrors.NewInvalidModeError(req.RequestedMode)
		}
		return mode, nil
	}

	query := lower(req.Query)
	for _, rule := range r.rules {
		if containsAny(query, rule.keywords) {
			if _, ok := r.handlers[rule.mode]; ok {
				return rule.mode, nil
			}
		}
	}
	return ModeQA, nil
}

func (r *Router) gatherContext(ctx context.Context, handler Handler, req *Request) (*Context, error) {
	switch handler.ContextKind() {
	case ContextFullDocument:
		gathered := &Context{}
		if req.DocumentId != "" {
			if doc, ok := r.registry.Get(req.DocumentId); ok {
				gathered.Document = doc
			}
		}
		return gathered, nil

	default:
		topK := req.TopK
		if topK <= 0 {
			topK = r.topKDefault
		}
		hits, err := r.index.Search(ctx, req.Query, topK, req.DocumentId)
		if err != nil {
			return nil, err
		}
		return &Context{Hits: hits}, nil
	}
}

func (r *Router) logFailure(mode Mode, message string, err error) {
	r.log.Error("ai.router", message, map[string]interface{}{
		"mode":  string(mode),
		"error": err.Error(),
	})
}

func erroredResult(mode Mode) *Result {
	return &Result{
		Answer:  "I encountered an error while processing your request. Please try again.",
		Mode:    mode,
		Sources: []entity.SearchHit{},
		Metadata: map[string]interface{}{
			"errored": true,
		},
	}
}
