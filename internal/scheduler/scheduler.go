// Package scheduler runs the periodic reassessment sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/wellmed/pkg/logger"
	"github.com/okian/wellmed/pkg/metrics"
)

// ErrNoSchedule is returned when the cron spec is empty.
var ErrNoSchedule = errors.New("empty reassessment schedule")

// Reassessor rescores every known user.
type Reassessor interface {
	ReassessAll(ctx context.Context) (int, error)
}

// Scheduler triggers a sweep on a six-field (seconds first) cron spec.
// A tick that fires while the previous sweep is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	target  Reassessor
	timeout time.Duration
	logger  logger.Logger
	entry   cron.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds a single sweep.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New parses spec and registers the sweep. It does not start the clock.
func New(spec string, target Reassessor, opts ...Option) (*Scheduler, error) {
	if spec == "" {
		return nil, ErrNoSchedule
	}
	s := &Scheduler{
		target:  target,
		timeout: 10 * time.Minute,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_, _ = s.Sweep(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("add reassessment schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins firing on schedule.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info(ctx, "reassessment scheduler started",
		logger.Time("next_run", s.Next()),
	)
}

// Stop halts the clock and waits for a running sweep or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info(ctx, "reassessment scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "reassessment scheduler stop timed out")
		return ctx.Err()
	}
}

// Next reports when the sweep fires next. Zero until started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Sweep rescores every user once and reports how many have a profile.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.target.ReassessAll(ctx)
	elapsed := time.Since(start)
	metrics.RecordSweep(float64(elapsed.Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("scheduler", "sweep")
		s.logger.Error(ctx, "reassessment sweep failed",
			logger.Int("scored", n),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return n, err
	}
	s.logger.Info(ctx, "reassessment sweep finished",
		logger.Int("scored", n),
		logger.Duration("elapsed", elapsed),
	)
	return n, nil
}
