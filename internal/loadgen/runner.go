package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wellmed/internal/domain/types"
	"github.com/okian/wellmed/pkg/logger"
)

const pollInterval = 100 * time.Millisecond

// Runner executes a load run against one service.
type Runner struct {
	cfg    Config
	client *client
	logger logger.Logger
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		if c != nil {
			r.client.http = c
		}
	}
}

// NewRunner validates cfg and returns a runner.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg: cfg,
		client: &client{
			http:    &http.Client{Timeout: cfg.Timeout},
			baseURL: cfg.BaseURL,
			token:   cfg.Token,
		},
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run checks health, submits every generated submission, waits for all
// users to be profiled and verifies the watchlist order.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{Users: r.cfg.Users}

	if err := r.checkHealth(ctx); err != nil {
		return stats, err
	}

	subs, users := Generate(r.cfg.Users, r.cfg.Seed, r.now())
	r.logger.Info(ctx, "generated submissions",
		logger.Int("users", len(users)),
		logger.Int("submissions", len(subs)),
	)

	r.submit(ctx, subs, &stats)
	r.logger.Info(ctx, "submission finished",
		logger.Int64("accepted", stats.Accepted),
		logger.Int64("duplicate", stats.Duplicate),
		logger.Int64("rejected", stats.Rejected),
		logger.Int64("failed", stats.Failed),
	)

	profiles, err := r.waitForProfiles(ctx, users)
	stats.Profiles = profiles
	if err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}

	var top []types.Entry
	if _, err := r.client.getJSON(ctx, "/v1/watchlist?limit="+strconv.Itoa(r.cfg.Top), &top); err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}
	stats.WatchlistEntries = len(top)
	stats.Top = top
	stats.Duration = time.Since(start)

	if err := verifyWatchlist(top); err != nil {
		return stats, err
	}
	if stats.Failed > 0 || stats.Rejected > 0 {
		return stats, fmt.Errorf("%w: %d failed and %d rejected submissions", ErrVerification, stats.Failed, stats.Rejected)
	}
	r.logger.Info(ctx, "load run verified",
		logger.Int("profiles", stats.Profiles),
		logger.Int("watchlist", stats.WatchlistEntries),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (r *Runner) checkHealth(ctx context.Context) error {
	status, _, err := r.client.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: /healthz returned %d", ErrUnhealthy, status)
	}
	return nil
}

// submit posts submissions with cfg.Workers goroutines. Each user's
// submissions stay on one worker so they arrive in order.
func (r *Runner) submit(ctx context.Context, subs []Submission, stats *Stats) {
	lanes := make([]chan Submission, r.cfg.Workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan Submission, 64)
		wg.Add(1)
		go func(in <-chan Submission) {
			defer wg.Done()
			for s := range in {
				r.submitOne(ctx, s, stats)
			}
		}(lanes[i])
	}

	lane := 0
	prevUser := ""
feed:
	for _, s := range subs {
		if s.UserID != prevUser && prevUser != "" {
			lane = (lane + 1) % len(lanes)
		}
		prevUser = s.UserID
		select {
		case <-ctx.Done():
			break feed
		case lanes[lane] <- s:
		}
	}
	for _, l := range lanes {
		close(l)
	}
	wg.Wait()
}

func (r *Runner) submitOne(ctx context.Context, s Submission, stats *Stats) { //nolint:gocritic // hugeParam: read-only
	atomic.AddInt64(&stats.Submitted, 1)
	for {
		status, body, err := r.client.do(ctx, http.MethodPost, "/v1/submissions", s)
		switch {
		case err != nil:
			atomic.AddInt64(&stats.Failed, 1)
			r.logger.Debug(ctx, "submission failed", logger.String("submission_id", s.SubmissionID), logger.Error(err))
			return
		case status == http.StatusAccepted:
			atomic.AddInt64(&stats.Accepted, 1)
			return
		case status == http.StatusOK:
			atomic.AddInt64(&stats.Duplicate, 1)
			return
		case status == http.StatusTooManyRequests:
			// Backpressure: the id was forgotten server side, so retry as is.
			select {
			case <-ctx.Done():
				atomic.AddInt64(&stats.Failed, 1)
				return
			case <-time.After(pollInterval):
			}
		default:
			atomic.AddInt64(&stats.Rejected, 1)
			r.logger.Warn(ctx, "submission rejected",
				logger.String("submission_id", s.SubmissionID),
				logger.Int("status", status),
				logger.String("body", string(body)),
			)
			return
		}
	}
}

// waitForProfiles polls each user's risk profile until all exist or the
// wait budget runs out.
func (r *Runner) waitForProfiles(ctx context.Context, users []string) (int, error) {
	deadline := time.Now().Add(r.cfg.Wait)
	pending := users
	found := 0
	for {
		var still []string
		for _, id := range pending {
			status, _, err := r.client.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(id)+"/risk", nil)
			if err == nil && status == http.StatusOK {
				found++
				continue
			}
			still = append(still, id)
		}
		pending = still
		if len(pending) == 0 {
			return found, nil
		}
		if time.Now().After(deadline) {
			return found, fmt.Errorf("%w: %d of %d users have no profile after %s",
				ErrVerification, len(pending), len(users), r.cfg.Wait)
		}
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// verifyWatchlist checks descending scores and competition ranks.
func verifyWatchlist(top []types.Entry) error {
	for i, e := range top {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first watchlist rank is %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := top[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("%w: entry %d (%s) outranks entry %d", ErrVerification, i, e.UserID, i-1)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %d and %d have ranks %d and %d", ErrVerification, i-1, i, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != i+1:
			return fmt.Errorf("%w: entry %d has rank %d, want %d", ErrVerification, i, e.Rank, i+1)
		}
	}
	return nil
}
