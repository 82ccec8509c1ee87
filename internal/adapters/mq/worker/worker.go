// Package worker drains the submission queue: each submission is written to
// history and the user's risk profile is recalculated.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wellmed/internal/domain/model"
	"github.com/okian/wellmed/pkg/logger"
	"github.com/okian/wellmed/pkg/metrics"
)

const defaultPoolSize = 4

// Recorder persists a submission to history.
type Recorder interface {
	Record(ctx context.Context, s model.Submission) error
}

// Rescorer recalculates a user's risk profile. scored is false when the
// user does not yet have enough history to be scored.
type Rescorer interface {
	Rescore(ctx context.Context, userID string) (scored bool, err error)
}

// Queue is the receive side workers consume.
type Queue interface {
	Dequeue() <-chan model.Submission
	Len() int
}

// Worker processes submissions until its queue closes or ctx ends.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	recorder Recorder
	rescorer Rescorer
	name     string
	logger   logger.Logger
	busy     *atomic.Int64

	done chan struct{}
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a worker reading from queue.
func NewInMemoryWorker(queue Queue, recorder Recorder, rescorer Rescorer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		recorder: recorder,
		rescorer: rescorer,
		name:     "worker",
		busy:     &atomic.Int64{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run consumes submissions until the queue is closed and drained or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-items:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			metrics.UpdateQueueSize(w.queue.Len())
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "submission failed",
					logger.String("submission_id", s.SubmissionID),
					logger.String("user_id", s.UserID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown waits for Run to return. Close the queue first so Run can drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, s model.Submission) error { //nolint:gocritic // hugeParam: value from channel
	metrics.UpdateWorkerActiveCount(int(w.busy.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.busy.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.recorder.Record(ctx, s); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "history")
		return fmt.Errorf("record submission %s: %w", s.SubmissionID, err)
	}
	metrics.RecordSubmissionProcessed(string(s.Kind))

	scored, err := w.rescorer.Rescore(ctx, s.UserID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rescore")
		return fmt.Errorf("rescore user %s: %w", s.UserID, err)
	}
	if !scored {
		w.logger.Debug(ctx, "user not scorable yet", logger.String("user_id", s.UserID))
	}
	return nil
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates workerCount workers sharing queue.
func NewPool(workerCount int, queue Queue, recorder Recorder, rescorer Rescorer, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = defaultPoolSize
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	busy := &atomic.Int64{}
	for i := range p.workers {
		name := "worker-" + strconv.Itoa(i)
		p.workers[i] = NewInMemoryWorker(queue, recorder, rescorer,
			WithName(name),
			WithLogger(p.logger.Named(name)),
			withBusyCounter(busy),
		)
	}
	p.logger = p.logger.Named("worker-pool")
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker. Cancelling ctx does not stop the workers;
// they run until Shutdown closes the queue so accepted submissions drain.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(runCtx)
		}(w)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, lets workers drain it and waits for them or ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.stopRun()
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("queued", p.queue.Len()))
		// Abandon what is left so workers stop picking up new items.
		p.stopRun()
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) stopRun() {
	if p.cancel != nil {
		p.cancel()
	}
}
