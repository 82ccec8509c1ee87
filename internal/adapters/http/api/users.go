package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/wellmed/internal/adapters/repository"
)

const defaultWatchlistLimit = 10

// handleUserRisk serves GET /v1/users/{id}/risk.
func (s *Server) handleUserRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_risk"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	userID, ok := strings.CutSuffix(rest, "/risk")
	if !ok || strings.TrimSpace(userID) == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	if err := s.authorizeUser(ctx, op, userID); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	profile, err := s.deps.Profile(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(ctx, w, WrapKind(op, ErrNotFound, fmt.Errorf("no risk profile for user %q", userID)))
		return
	case errors.Is(err, repository.ErrInvalidUserID):
		s.respondError(ctx, w, WrapKind(op, ErrBadRequest, err))
		return
	case err != nil:
		s.respondError(ctx, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleWatchlist serves GET /v1/watchlist?limit=N ordered by descending
// combined score.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	const op = "api.watchlist"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	if err := s.authorizeClinician(ctx, op); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	limit := min(defaultWatchlistLimit, s.maxWatchlist)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.maxWatchlist {
			s.respondError(ctx, w, WrapKind(op, ErrBadRequest,
				fmt.Errorf("limit must be an integer between 1 and %d", s.maxWatchlist)))
			return
		}
		limit = n
	}

	entries, err := s.deps.TopN(ctx, limit)
	if err != nil {
		s.respondError(ctx, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
