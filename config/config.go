// Package config loads application configuration from an optional YAML file
// with environment variable overrides. Secrets (API keys, Redis URL) come
// from the environment only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/finchat/hybridmem/internal/logging"
)

// Duration accepts "24h"-style strings in YAML, which yaml.v3 does not do for
// time.Duration directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the application configuration.
type Config struct {
	Logging logging.Config `yaml:"logging"`

	Memory MemoryConfig `yaml:"memory"`

	// AnthropicAPIKey authenticates the chat model. Env: ANTHROPIC_API_KEY.
	AnthropicAPIKey string `yaml:"-"`

	// OpenAIAPIKey authenticates the embeddings provider. Env:
	// OPENAI_API_KEY.
	OpenAIAPIKey string `yaml:"-"`

	// RedisURL selects the Redis short-term store when set. Env: REDIS_URL.
	RedisURL string `yaml:"-"`
}

// MemoryConfig tunes the memory subsystem.
type MemoryConfig struct {
	// ImportanceThreshold gates long-term storage. Default: 0.5.
	ImportanceThreshold float64 `yaml:"importance_threshold"`

	// RecentLimit caps the recent-conversation context section. Default: 5.
	RecentLimit int `yaml:"recent_limit"`

	// ImportantLimit caps the important-memories context section. Default: 3.
	ImportantLimit int `yaml:"important_limit"`

	// RelatedLimit caps the related-memories context section. Default: 2.
	RelatedLimit int `yaml:"related_limit"`

	// ShortTermTTL expires inactive short-term memory. Default: 24h.
	ShortTermTTL Duration `yaml:"short_term_ttl"`

	// ShortTermWindow caps interactions per user. Default: 10.
	ShortTermWindow int `yaml:"short_term_window"`

	// EmbeddingDimensions sizes the vector index. Default: 1536.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`
}

// Load reads path (when non-empty and present) and applies environment
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.RedisURL = envOr("REDIS_URL", cfg.RedisURL)
	cfg.Logging.Level = envOr("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = envOr("LOG_FORMAT", cfg.Logging.Format)
	if v := os.Getenv("IMPORTANCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: IMPORTANCE_THRESHOLD: %w", err)
		}
		cfg.Memory.ImportanceThreshold = f
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	m := &c.Memory
	if m.ImportanceThreshold == 0 {
		m.ImportanceThreshold = 0.5
	}
	if m.RecentLimit == 0 {
		m.RecentLimit = 5
	}
	if m.ImportantLimit == 0 {
		m.ImportantLimit = 3
	}
	if m.RelatedLimit == 0 {
		m.RelatedLimit = 2
	}
	if m.ShortTermTTL == 0 {
		m.ShortTermTTL = Duration(24 * time.Hour)
	}
	if m.ShortTermWindow == 0 {
		m.ShortTermWindow = 10
	}
	if m.EmbeddingDimensions == 0 {
		m.EmbeddingDimensions = 1536
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
