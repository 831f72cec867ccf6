package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.Memory.ImportanceThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Memory.RecentLimit)
	assert.Equal(t, 3, cfg.Memory.ImportantLimit)
	assert.Equal(t, 2, cfg.Memory.RelatedLimit)
	assert.Equal(t, Duration(24*time.Hour), cfg.Memory.ShortTermTTL)
	assert.Equal(t, 10, cfg.Memory.ShortTermWindow)
	assert.Equal(t, 1536, cfg.Memory.EmbeddingDimensions)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Memory.ShortTermWindow)
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
memory:
  importance_threshold: 0.6
  recent_limit: 7
  short_term_ttl: 1h
`), 0o644)
	require.NoError(t, err)

	t.Setenv("IMPORTANCE_THRESHOLD", "0.7")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Env beats file, file beats defaults.
	assert.InDelta(t, 0.7, cfg.Memory.ImportanceThreshold, 1e-9)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Memory.RecentLimit)
	assert.Equal(t, Duration(time.Hour), cfg.Memory.ShortTermTTL)
	assert.Equal(t, "test-key", cfg.AnthropicAPIKey)
	assert.Equal(t, 3, cfg.Memory.ImportantLimit)
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("IMPORTANCE_THRESHOLD", "not-a-number")
	_, err := Load("")
	assert.Error(t, err)
}
