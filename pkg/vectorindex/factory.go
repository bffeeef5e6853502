package vectorindex

import (
	"fmt"

	"docchat-be/internal/config"
	"docchat-be/internal/pkg/apperrors"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/implementation"
	"docchat-be/pkg/database"
	"docchat-be/pkg/embedding"
)

// NewIndex builds the configured backend. When the remote backend is
// configured but unreachable, the service comes up on the local store
// instead of refusing to start; the degradation is decided here, once, and
// never re-evaluated per request.
func NewIndex(cfg config.IndexConfig, embedder embedding.EmbeddingProvider, log logger.ILogger) (Index, error) {
	switch cfg.Backend {
	case KindLocal:
		return NewLocalFileIndex(cfg.LocalPath, embedder, log)

	case KindPgVector:
		remote, err := newRemoteIndex(cfg, embedder, log)
		if err == nil {
			return remote, nil
		}

		unavailable := apperrors.NewIndexUnavailableError(err)
		log.Warn("vectorindex.factory", "remote backend unreachable, falling back to local store", map[string]interface{}{
			"error":      unavailable.Error(),
			"local_path": cfg.LocalPath,
		})
		return NewLocalFileIndex(cfg.LocalPath, embedder, log)

	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown index backend: %s", cfg.Backend))
	}
}

func newRemoteIndex(cfg config.IndexConfig, embedder embedding.EmbeddingProvider, log logger.ILogger) (Index, error) {
	db, err := database.NewGormDBFromDSN(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	repository := implementation.NewChunkEmbeddingRepository(db)
	return NewPgVectorIndex(repository, embedder, log), nil
}
