package bootstrap

import (
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"docchat-be/internal/config"
	"docchat-be/internal/controller"
	"docchat-be/internal/events"
	applogger "docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/service"
	"docchat-be/pkg/ai/handlers"
	"docchat-be/pkg/ai/router"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/ingestion"
	"docchat-be/pkg/llm"
	llmfactory "docchat-be/pkg/llm/factory"
	"docchat-be/pkg/vectorindex"
)

// Container holds every wired dependency of the application. Construction
// is fail-fast: a bad chunker config or an unreachable mandatory provider
// stops the process at startup instead of surfacing per-request.
type Container struct {
	Config *config.Config
	Logger applogger.ILogger

	Index    vectorindex.Index
	Registry *memory.DocumentRegistry

	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	ReindexConsumer *events.ReindexConsumer
}

func NewContainer(cfg *config.Config) (*Container, error) {
	zapLog := applogger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	embedder := newEmbeddingProvider(cfg)

	llmProvider, err := llmfactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	index, err := vectorindex.NewIndex(cfg.Index, embedder, zapLog)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Vector index backend: %s", index.Kind())

	registry := memory.NewDocumentRegistry()
	sessions := memory.NewSessionRepository(time.Duration(cfg.App.SessionTTLMinutes) * time.Minute)

	chunker, err := ingestion.NewChunker(cfg.Ingest.MaxChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	pipeline := ingestion.NewPipeline(
		cfg.Ingest.MaxFileSizeMB,
		cfg.Ingest.StagingDir,
		registry,
		index,
		ingestion.NewPDFProcessor(ingestion.ExecRunner{}, chunker),
		ingestion.NewCSVProcessor(chunker, cfg.Ingest.SampleRowBlock),
		zapLog,
	)

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	publisher := events.NewReindexPublisher(pubSub, zapLog)
	consumer := events.NewReindexConsumer(pubSub, pipeline, zapLog)

	chatRouter := router.NewRouter(
		newHandlers(cfg, llmProvider),
		cfg.Router.SummaryKeywords,
		cfg.Router.QuizKeywords,
		cfg.Router.AnalyticsKeywords,
		index,
		registry,
		cfg.Index.TopKDefault,
		zapLog,
	)

	documentService := service.NewDocumentService(pipeline, registry, index, publisher, zapLog)
	chatService := service.NewChatService(chatRouter, sessions, zapLog)

	return &Container{
		Config:             cfg,
		Logger:             zapLog,
		Index:              index,
		Registry:           registry,
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),
		ReindexConsumer:    consumer,
	}, nil
}

func newEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	if cfg.Ai.EmbeddingProvider == "gemini" && cfg.Ai.GeminiAPIKey != "" {
		log.Println("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
}

func newHandlers(cfg *config.Config, provider llm.LLMProvider) []router.Handler {
	return []router.Handler{
		handlers.NewQAHandler(provider, cfg.Router.AnalyticsKeywords),
		handlers.NewSummarizationHandler(provider, cfg.Handlers.SummaryMaxWords),
		handlers.NewQuizHandler(provider, cfg.Handlers.QuizNumQuestions),
		handlers.NewAnalyticsHandler(provider),
	}
}
