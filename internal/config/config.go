// Package config loads process settings from the environment (prefix COACH_),
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "coach"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the settings shared by every command.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	Table        string        `envconfig:"TABLE"`
	Store        string        `envconfig:"STORE" default:"memory"`
	RedisURL     string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisPrefix  string        `envconfig:"REDIS_PREFIX" default:"coach:"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string        `envconfig:"LOG_FORMAT" default:"text"`
	MaxInputSize int           `envconfig:"MAX_INPUT_SIZE" default:"4096"`

	// EncryptionKey seals stored sessions when set (base64, 32 bytes).
	// EncryptionFallbackKeys lists retired keys still accepted for reading.
	EncryptionKey          string `envconfig:"ENCRYPTION_KEY"`
	EncryptionFallbackKeys string `envconfig:"ENCRYPTION_FALLBACK_KEYS"`
}

// Load reads the given .env files (default ".env"; missing files are ignored)
// and then the environment. Variables already set win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid COACH_STORE %q (expected %s or %s)", c.Store, StoreMemory, StoreRedis)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("invalid COACH_MAX_INPUT_SIZE %d", c.MaxInputSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := logging.ValidFormat(c.LogFormat); err != nil {
		return fmt.Errorf("invalid COACH_LOG_FORMAT: %w", err)
	}
	return nil
}

// Level parses LogLevel (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid COACH_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
