// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/gigrank/internal/domain/reputation"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory ingest queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the event id cache. Zero or less means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of catalog shards.
	ShardCount int `koanf:"shard_count"`

	// MaxRecommendationLimit caps the limit query parameter.
	MaxRecommendationLimit int `koanf:"max_recommendation_limit"`

	// DefaultRecommendationLimit is used when limit is omitted.
	DefaultRecommendationLimit int `koanf:"default_recommendation_limit"`

	// ScoringConcurrency bounds parallel scoring within one request.
	ScoringConcurrency int `koanf:"scoring_concurrency"`

	// ReputationDecayRate is the yearly review decay in percent (0..100).
	ReputationDecayRate int `koanf:"reputation_decay_rate"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                   "info",
		LogFormat:                  "text",
		Addr:                       ":9080",
		EventQueueSize:             100_000,
		WorkerCount:                runtime.NumCPU() * 2,
		DedupeSize:                 500_000,
		ShardCount:                 8,
		MaxRecommendationLimit:     100,
		DefaultRecommendationLimit: 20,
		ScoringConcurrency:         runtime.NumCPU(),
		ReputationDecayRate:        10,
	}
}

// Validate reports the first invalid field, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr", "must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format", "must be text or json")
	case c.EventQueueSize <= 0:
		return invalid("queue_size", "must be positive")
	case c.WorkerCount <= 0:
		return invalid("worker_count", "must be positive")
	case c.ShardCount <= 0:
		return invalid("shard_count", "must be positive")
	case c.MaxRecommendationLimit <= 0:
		return invalid("max_recommendation_limit", "must be positive")
	case c.DefaultRecommendationLimit <= 0 || c.DefaultRecommendationLimit > c.MaxRecommendationLimit:
		return invalid("default_recommendation_limit", "must be within 1..max_recommendation_limit")
	case c.ScoringConcurrency <= 0:
		return invalid("scoring_concurrency", "must be positive")
	}
	if err := reputation.ValidateDecayRate(c.ReputationDecayRate); err != nil {
		return fmt.Errorf("%w: reputation_decay_rate: %w", ErrInvalidConfig, err)
	}
	return nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}
