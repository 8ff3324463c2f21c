package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 300, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 0.6, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.SearchTTL)
	assert.Equal(t, "memory", cfg.Session.Store)
}

func TestLoaderYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: 9090
retrieval:
  similarity_threshold: 0.7
cache:
  search_ttl: 5m
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 0.7, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SearchTTL)
	// Untouched keys keep their defaults.
	assert.Equal(t, 300, cfg.Chunking.MaxChunkSize)
}

func TestLoaderEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9090\n"), 0o644))

	t.Setenv("PORTFOLIO_RAG_SERVER_HTTP_PORT", "7070")
	t.Setenv("PORTFOLIO_RAG_EMBEDDING_PROVIDER_TIMEOUT", "3s")
	t.Setenv("PORTFOLIO_RAG_SESSION_STORE", "mongo")
	t.Setenv("PORTFOLIO_RAG_SESSION_MONGO_URI", "mongodb://localhost:27017")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.Embedding.ProviderTimeout)
	assert.Equal(t, "mongo", cfg.Session.Store)
}

func TestLoaderMissingConfigFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestValidateRejectsBadChunking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking.Overlap = cfg.Chunking.MaxChunkSize

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.SimilarityThreshold = 1.5

	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
