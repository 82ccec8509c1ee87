// Package api serves the burnout scoring HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/wellmed/internal/domain/dedupe"
	"github.com/okian/wellmed/internal/domain/model"
	"github.com/okian/wellmed/internal/domain/types"
	"github.com/okian/wellmed/pkg/logger"
)

const (
	maxBodyBytes        = 1 << 20
	defaultWatchlistMax = 100
)

// Dependencies required by the stateful handlers.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue hands a validated submission to the workers. It must not block.
	Enqueue(ctx context.Context, s model.Submission) error

	// Profile returns the stored risk profile of a user.
	Profile(ctx context.Context, userID string) (types.Profile, error)

	// TopN returns the n highest-risk users.
	TopN(ctx context.Context, n int) ([]types.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	stats         StatsProvider
	auth          *Authenticator
	maxWatchlist  int
	now           func() time.Time
	newID         func() string
	logger        logger.Logger
	healthHandler *HealthHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAuthenticator protects /v1 routes with bearer tokens.
func WithAuthenticator(a *Authenticator) ServerOption {
	return func(s *Server) {
		s.auth = a
	}
}

// WithMaxWatchlist caps the watchlist limit parameter.
func WithMaxWatchlist(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxWatchlist = n
		}
	}
}

// WithClock overrides the time source for streaks and default timestamps.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how missing submission ids are generated.
func WithIDGenerator(gen func() string) ServerOption {
	return func(s *Server) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		deps:          deps,
		stats:         stats,
		maxWatchlist:  defaultWatchlistMax,
		now:           time.Now,
		newID:         newSubmissionID,
		healthHandler: NewHealthHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(NewStatsHandler(s.stats).HandleStats, "stats"))

	mux.HandleFunc("/v1/risk", MetricsMiddleware(s.protect(s.handleRisk), "risk"))
	mux.HandleFunc("/v1/trend", MetricsMiddleware(s.protect(s.handleTrend), "trend"))
	mux.HandleFunc("/v1/streak", MetricsMiddleware(s.protect(s.handleStreak), "streak"))
	mux.HandleFunc("/v1/submissions", MetricsMiddleware(s.protect(s.handleSubmission), "submissions"))
	mux.HandleFunc("/v1/users/", MetricsMiddleware(s.protect(s.handleUserRisk), "user_risk"))
	mux.HandleFunc("/v1/watchlist", MetricsMiddleware(s.protect(s.handleWatchlist), "watchlist"))
}

// protect applies bearer auth when an authenticator is configured.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return next
	}
	return s.auth.Require(next)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// respondError writes err with the status its kind maps to. Internal
// failures are logged and their cause hidden from the client.
func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		var apiErr *Error
		op := ""
		if errors.As(err, &apiErr) {
			op = apiErr.Op
		}
		s.logger.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		if status == http.StatusInternalServerError {
			err = nil
		}
	}
	writeError(w, status, code, err)
}

// decodeJSON reads one JSON object from the request body. Unknown fields
// are rejected so typos in assessment keys surface as 400s.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
