package worker

import (
	"sync/atomic"

	"github.com/okian/wellmed/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// withBusyCounter shares the active-worker gauge across a pool.
func withBusyCounter(c *atomic.Int64) Option {
	return func(w *InMemoryWorker) {
		w.busy = c
	}
}
