// Package service wires the burnout scorer to history, the risk board, the
// submission queue and outbound events. It implements the dependencies the
// HTTP API, the worker pool and the reassessment scheduler need.
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/wellmed/internal/adapters/history"
	"github.com/okian/wellmed/internal/adapters/mq/publisher"
	eventqueue "github.com/okian/wellmed/internal/adapters/mq/queue"
	workerpool "github.com/okian/wellmed/internal/adapters/mq/worker"
	"github.com/okian/wellmed/internal/adapters/repository"
	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/dedupe"
	"github.com/okian/wellmed/internal/domain/model"
	"github.com/okian/wellmed/internal/domain/mood"
	"github.com/okian/wellmed/internal/domain/streak"
	"github.com/okian/wellmed/internal/domain/types"
	"github.com/okian/wellmed/pkg/logger"
	"github.com/okian/wellmed/pkg/metrics"
)

const (
	defaultWorkerCount = 4
	defaultQueueSize   = 10_000
	defaultDedupeSize  = 50_000
	userLockStripes    = 64
)

// Sentinel errors.
var (
	// ErrNoAssessment means the user has no MBI snapshot yet, so no risk
	// profile can be built.
	ErrNoAssessment = errors.New("no MBI assessment recorded")
	ErrNotStarted   = errors.New("service not started")
)

// Service implements the API, worker and scheduler dependencies.
type Service struct {
	mu sync.RWMutex

	history   history.Store
	board     repository.Store
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	publisher publisher.Publisher

	workerCount int
	queueSize   int
	dedupeSize  int
	moodWindow  int
	now         func() time.Time

	// userLocks serialise rescoring per user so a stale snapshot never
	// overwrites a newer one on the board.
	userLocks [userLockStripes]sync.Mutex

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMoodWindow sets how many recent mood entries are averaged.
func WithMoodWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.moodWindow = n
		}
	}
}

// WithHistoryStore replaces the default in-memory history.
func WithHistoryStore(h history.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithPublisher sets where risk change events go.
func WithPublisher(p publisher.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides the time source used for streaks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Stores are ready immediately; the queue and
// workers start with Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		moodWindow:  mood.DefaultWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}
	if s.publisher == nil {
		s.publisher = publisher.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.board = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the queue and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s, workerpool.WithPoolLogger(s.logger))
	s.pool.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "burnout service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("mood_window", s.moodWindow),
	)
	return nil
}

// Stop drains the queue, then closes the publisher and history store. The
// history store stays open when the workers did not finish within ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	var errs []error
	drained := true
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
		drained = false
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// Workers may still be writing; leave the store open for them.
	if drained {
		if err := s.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	} else {
		s.logger.Warn(ctx, "history left open: workers did not drain")
	}
	s.logger.Info(ctx, "burnout service stopped")
	return errors.Join(errs...)
}

// SeenAndRecord reports whether a submission id was already seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSubmissionDuplicate()
	}
	return seen
}

// Unrecord forgets a submission id so the submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of remembered submission ids.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue hands a validated submission to the worker pool without blocking.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) error { //nolint:gocritic // hugeParam: copied into the queue anyway
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return ErrNotStarted
	}
	if err := q.Enqueue(ctx, sub); err != nil {
		return err
	}
	s.logger.Debug(ctx, "submission queued",
		logger.String("submission_id", sub.SubmissionID),
		logger.String("user_id", sub.UserID),
		logger.String("kind", string(sub.Kind)),
	)
	return nil
}

// Record writes one submission to history.
func (s *Service) Record(ctx context.Context, sub model.Submission) error { //nolint:gocritic // hugeParam: worker passes by value
	var err error
	switch sub.Kind {
	case model.KindMood:
		err = s.history.AddMood(ctx, sub.UserID, mood.Entry{Mood: sub.Mood, Timestamp: sub.TS})
	case model.KindMicro:
		err = s.history.AddMicro(ctx, sub.UserID, sub.TS, *sub.Micro)
	case model.KindMBI:
		err = s.history.AddMBI(ctx, sub.UserID, sub.TS, *sub.MBI)
	case model.KindActivity:
		err = s.history.AddActivity(ctx, sub.UserID, sub.TS, sub.Activity)
	default:
		return fmt.Errorf("%w: unknown kind %q", model.ErrInvalidSubmission, sub.Kind)
	}
	if err != nil {
		metrics.RecordHistoryError()
		return err
	}
	metrics.RecordHistoryWrite(string(sub.Kind))
	return nil
}

// Rescore rebuilds the user's profile, stores it on the board and publishes
// a risk change event when the level moved. It returns false without error
// when the user has no MBI snapshot yet.
func (s *Service) Rescore(ctx context.Context, userID string) (bool, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	p, err := s.BuildProfile(ctx, userID)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if errors.Is(err, ErrNoAssessment) {
		return false, nil
	}
	if err != nil {
		metrics.RecordScoringError()
		return false, err
	}
	metrics.RecordRiskScored(string(p.Result.RiskLevel))

	prev, existed, err := s.board.Upsert(ctx, p)
	if err != nil {
		return false, fmt.Errorf("update risk board: %w", err)
	}
	if !existed || prev.Result.RiskLevel != p.Result.RiskLevel {
		if existed {
			metrics.RecordRiskLevelChange()
		}
		s.publishChange(ctx, prev, existed, p)
	}
	return true, nil
}

func (s *Service) publishChange(ctx context.Context, prev types.Profile, existed bool, p types.Profile) { //nolint:gocritic // hugeParam: read-only copies
	event := publisher.Event{
		Type:          publisher.EventRiskChanged,
		UserID:        p.UserID,
		RiskLevel:     p.Result.RiskLevel,
		Score:         p.Result.Score,
		CombinedScore: p.Result.CombinedScore,
		Trend:         p.Trend,
		At:            p.UpdatedAt,
	}
	if existed {
		event.PreviousLevel = prev.Result.RiskLevel
	}
	// A lost event must not fail the submission that caused it.
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.RecordErrorByComponent("publisher", "publish")
		s.logger.Warn(ctx, "risk event not published",
			logger.String("user_id", p.UserID),
			logger.Error(err),
		)
	}
}

// BuildProfile assembles and scores the user's current risk profile from
// history. Missing mood entries count as the default mood average and a
// missing micro assessment as neutral; a missing MBI snapshot yields
// ErrNoAssessment.
func (s *Service) BuildProfile(ctx context.Context, userID string) (types.Profile, error) {
	snap, err := s.history.Snapshot(ctx, userID, s.moodWindow)
	if errors.Is(err, history.ErrUnknownUser) {
		return types.Profile{}, ErrNoAssessment
	}
	if err != nil {
		return types.Profile{}, fmt.Errorf("load history: %w", err)
	}
	if snap.LatestMBI == nil {
		return types.Profile{}, ErrNoAssessment
	}

	moodAvg := burnout.DefaultMoodAverage
	if avg, err := mood.Average(snap.Moods, s.moodWindow); err == nil {
		moodAvg = avg
	}
	micro := burnout.NeutralMicro
	if snap.LatestMicro != nil {
		micro = *snap.LatestMicro
	}

	result, err := burnout.Score(moodAvg, micro, *snap.LatestMBI)
	if err != nil {
		return types.Profile{}, fmt.Errorf("score user %s: %w", userID, err)
	}

	trend := burnout.TrendNone
	if snap.PreviousMBI != nil {
		if trend, err = burnout.CalculateTrend(*snap.LatestMBI, *snap.PreviousMBI); err != nil {
			return types.Profile{}, fmt.Errorf("trend for user %s: %w", userID, err)
		}
	}

	now := s.now().UTC()
	current := streak.ActivityStreak(snap.Activities, now)
	longest := streak.LongestStreak(snap.Activities)
	goal := streak.WellnessGoal(current, longest)

	return types.Profile{
		UserID:    userID,
		Result:    result,
		Trend:     trend,
		MoodTrend: mood.RecentTrend(snap.Moods, s.moodWindow),
		Insight:   burnout.FormatInsight(result, trend),
		Color:     burnout.RiskColor(string(result.RiskLevel)),
		Icon:      burnout.RiskIcon(string(result.RiskLevel)),
		Streak: types.StreakSummary{
			Current:    current,
			Longest:    longest,
			Message:    streak.StreakMessage(current),
			GoalTarget: goal.Target,
			GoalText:   goal.Message,
		},
		UpdatedAt: now,
	}, nil
}

// Profile returns the user's stored profile with its watchlist rank.
func (s *Service) Profile(ctx context.Context, userID string) (types.Profile, error) {
	return s.board.Get(ctx, userID)
}

// TopN returns the n highest-risk users.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.board.TopN(ctx, n)
}

// ReassessAll rescores every user with history and returns how many now
// have a profile.
func (s *Service) ReassessAll(ctx context.Context) (int, error) {
	users, err := s.history.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	scored := 0
	var errs []error
	for _, id := range users {
		if err := ctx.Err(); err != nil {
			return scored, err
		}
		ok, err := s.Rescore(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			continue
		}
		if ok {
			scored++
		}
	}
	return scored, errors.Join(errs...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	users := s.board.Count(ctx)
	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"dedupeLength": s.deduper.Size(),
		"moodWindow":   s.moodWindow,
		"scoredUsers":  users,
	}
	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdateBoardUsers(users)
	return stats
}

func (s *Service) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.userLocks[h.Sum32()%userLockStripes]
}
