// Package logging configures the process-wide zerolog logger. Library
// packages log through zerolog's global logger with a component field, so one
// Init call at startup shapes every component's output.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls log level and rendering.
type Config struct {
	// Level is a zerolog level name (debug, info, warn, error). Default:
	// info.
	Level string `yaml:"level"`

	// Format is "console" for human-readable output or "json". Default:
	// json.
	Format string `yaml:"format"`
}

// Init installs the global logger.
func Init(cfg Config) error {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(cfg.Format, "console") {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}).With().Timestamp().Logger()
		return nil
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	return nil
}
