package vectorindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/config"
	"docchat-be/internal/pkg/apperrors"
)

func TestNewIndexLocalBackend(t *testing.T) {
	cfg := config.IndexConfig{
		Backend:   KindLocal,
		LocalPath: filepath.Join(t.TempDir(), "index.json"),
	}

	index, err := NewIndex(cfg, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)
	assert.Equal(t, KindLocal, index.Kind())
}

func TestNewIndexFallsBackWhenRemoteUnreachable(t *testing.T) {
	// Nothing listens on the discard port, so the connection attempt fails
	// immediately and the factory degrades to the local store.
	cfg := config.IndexConfig{
		Backend:    KindPgVector,
		Connection: "host=127.0.0.1 port=9 user=docchat password=docchat dbname=docchat sslmode=disable connect_timeout=1",
		LocalPath:  filepath.Join(t.TempDir(), "index.json"),
	}

	index, err := NewIndex(cfg, newTestEmbedder(), nopLogger{})
	require.NoError(t, err)
	assert.Equal(t, KindLocal, index.Kind())

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindLocal, stats.BackendKind)
	assert.Equal(t, int64(0), stats.TotalVectors)
}

func TestNewIndexUnknownBackend(t *testing.T) {
	cfg := config.IndexConfig{Backend: "elasticsearch"}

	_, err := NewIndex(cfg, newTestEmbedder(), nopLogger{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}
