package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"docchat-be/internal/pkg/apperrors"
)

type Config struct {
	App      AppConfig
	Ingest   IngestConfig
	Index    IndexConfig
	Ai       AIConfig
	Router   RouterConfig
	Handlers HandlerConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SessionTTLMinutes  int
}

type IngestConfig struct {
	MaxChunkSize   int
	ChunkOverlap   int
	MaxFileSizeMB  int
	StagingDir     string
	SampleRowBlock int // rows per sample-row chunk for tabular documents
}

type IndexConfig struct {
	Backend     string // "pgvector" or "local"
	Connection  string // DSN for the pgvector backend
	LocalPath   string // flat-file path for the local backend
	TopKDefault int
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	GeminiAPIKey      string
	LLMProvider       string
	LLMModel          string
}

// RouterConfig carries the keyword lists used for heuristic mode selection.
// The lists are configuration, not fixed semantics: the source heuristic is
// first-match with no completeness guarantee, so operators may override them.
type RouterConfig struct {
	SummaryKeywords   []string
	QuizKeywords      []string
	AnalyticsKeywords []string
}

type HandlerConfig struct {
	SummaryMaxWords  int
	QuizNumQuestions int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			SessionTTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		Ingest: IngestConfig{
			MaxChunkSize:   getEnvAsInt("MAX_CHUNK_SIZE", 1000),
			ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
			MaxFileSizeMB:  getEnvAsInt("MAX_FILE_SIZE_MB", 50),
			StagingDir:     getEnv("STAGING_DIR", "storage/staging"),
			SampleRowBlock: getEnvAsInt("SAMPLE_ROW_BLOCK", 10),
		},
		Index: IndexConfig{
			Backend:     getEnv("VECTOR_BACKEND", "local"),
			Connection:  getEnv("DB_CONNECTION_STRING", ""),
			LocalPath:   getEnv("LOCAL_INDEX_PATH", "storage/vector_index.json"),
			TopKDefault: getEnvAsInt("TOP_K_DEFAULT", 5),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Router: RouterConfig{
			SummaryKeywords: getEnvAsList("ROUTER_SUMMARY_KEYWORDS",
				"summarize,summary,executive summary,key points,overview,brief,synopsis,recap,highlights"),
			QuizKeywords: getEnvAsList("ROUTER_QUIZ_KEYWORDS",
				"quiz,test,questions,mcq,multiple choice,examination,assessment,practice"),
			AnalyticsKeywords: getEnvAsList("ROUTER_ANALYTICS_KEYWORDS",
				"kpi,trend,trends,analytics,insights,anomaly,anomalies,statistics,metrics,correlation,forecast,ratio"),
		},
		Handlers: HandlerConfig{
			SummaryMaxWords:  getEnvAsInt("SUMMARY_MAX_WORDS", 500),
			QuizNumQuestions: getEnvAsInt("QUIZ_NUM_QUESTIONS", 5),
		},
	}
}

// Validate checks settings that would otherwise fail deep inside a request.
// Fatal at startup.
func (c *Config) Validate() error {
	if c.Ingest.MaxChunkSize <= 0 {
		return apperrors.NewConfigurationError("MAX_CHUNK_SIZE must be positive")
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.MaxChunkSize {
		return apperrors.NewConfigurationError("CHUNK_OVERLAP must be non-negative and smaller than MAX_CHUNK_SIZE")
	}
	if c.Ingest.MaxFileSizeMB <= 0 {
		return apperrors.NewConfigurationError("MAX_FILE_SIZE_MB must be positive")
	}
	if c.Index.TopKDefault <= 0 {
		return apperrors.NewConfigurationError("TOP_K_DEFAULT must be positive")
	}
	if c.Index.Backend != "pgvector" && c.Index.Backend != "local" {
		return apperrors.NewConfigurationError("VECTOR_BACKEND must be 'pgvector' or 'local'")
	}
	if c.Index.Backend == "pgvector" && c.Index.Connection == "" {
		return apperrors.NewConfigurationError("DB_CONNECTION_STRING is required for the pgvector backend")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
