// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxWatchlistLimit caps GET /v1/watchlist?limit.
	MaxWatchlistLimit int `koanf:"max_watchlist_limit"`

	// MoodWindow is how many recent mood entries feed the mood average.
	MoodWindow int `koanf:"mood_window"`

	// StoreDriver picks the history backend: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`

	// JWTSecret enables bearer auth on /v1 routes when set.
	JWTSecret string `koanf:"jwt_secret"`

	// KafkaBrokers enables risk change events when non-empty.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// ReassessCron is a six-field cron spec for the reassessment sweep; empty disables it.
	ReassessCron string `koanf:"reassess_cron"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Metrics names are <namespace>_<subsystem>_<metric>. MetricsLabels are
	// attached to every series; MetricsLatencyBuckets are in milliseconds.
	MetricsNamespace      string            `koanf:"metrics_namespace"`
	MetricsSubsystem      string            `koanf:"metrics_subsystem"`
	MetricsLabels         map[string]string `koanf:"metrics_labels"`
	MetricsLatencyBuckets []float64         `koanf:"metrics_latency_buckets"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		MaxWatchlistLimit: 100,
		MoodWindow:        5,
		StoreDriver:       StoreMemory,
		SQLitePath:        "wellmed.db",
		KafkaTopic:        "wellmed.risk",
		ReassessCron:      "0 0 * * * *",
		ShutdownTimeout:   5 * time.Second,
		MetricsNamespace:  "wellmed",
		MetricsSubsystem:  "burnout",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxWatchlistLimit <= 0:
		return fmt.Errorf("%w: max_watchlist_limit must be positive", ErrInvalidConfig)
	case c.MoodWindow <= 0:
		return fmt.Errorf("%w: mood_window must be positive", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: store_driver %q is not memory or sqlite", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
	case len(c.KafkaBrokers) > 0 && c.KafkaTopic == "":
		return fmt.Errorf("%w: kafka_topic is required when brokers are set", ErrInvalidConfig)
	case !strictlyAscending(c.MetricsLatencyBuckets):
		return fmt.Errorf("%w: metrics_latency_buckets must be strictly ascending", ErrInvalidConfig)
	}
	return nil
}

func strictlyAscending(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return false
		}
	}
	return true
}
