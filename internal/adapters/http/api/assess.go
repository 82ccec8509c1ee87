package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
	"github.com/okian/wellmed/internal/domain/streak"
)

type riskRequest struct {
	MoodAverage     *float64                 `json:"moodAverage,omitempty"`
	MoodEntries     []mood.Entry             `json:"moodEntries,omitempty"`
	MicroAssessment *burnout.MicroAssessment `json:"microAssessment,omitempty"`
	MbiAssessment   *burnout.MbiAssessment   `json:"mbiAssessment"`
}

type riskResponse struct {
	burnout.Result
	Color   string `json:"color"`
	Icon    string `json:"icon"`
	Insight string `json:"insight"`
}

type trendRequest struct {
	Current     *burnout.MbiAssessment `json:"current"`
	Previous    *burnout.MbiAssessment `json:"previous"`
	MoodAverage *float64               `json:"moodAverage,omitempty"`
}

type trendResponse struct {
	Trend burnout.Trend `json:"trend"`
	Icon  string        `json:"icon"`
}

type streakRequest struct {
	Activities []streak.Activity `json:"activities"`
	Now        *time.Time        `json:"now,omitempty"`
}

type streakResponse struct {
	Current          int         `json:"current"`
	Longest          int         `json:"longest"`
	LastActivityDate *time.Time  `json:"lastActivityDate,omitempty"`
	Message          string      `json:"message"`
	Goal             streak.Goal `json:"goal"`
}

// handleRisk scores a raw input synchronously. Mood falls back to the
// average of moodEntries and then to the neutral default; a missing micro
// check-in is held at the neutral midpoint. The MBI snapshot is required.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.risk"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req riskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.MbiAssessment == nil {
		s.respondError(r.Context(), w, WrapKind(op, ErrBadRequest, errors.New("mbiAssessment is required")))
		return
	}

	moodAvg := burnout.DefaultMoodAverage
	switch {
	case req.MoodAverage != nil:
		moodAvg = burnout.MoodAverage(*req.MoodAverage)
	case len(req.MoodEntries) > 0:
		avg, err := mood.Average(req.MoodEntries, mood.DefaultWindow)
		if err != nil {
			s.respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
			return
		}
		moodAvg = avg
	}
	micro := burnout.NeutralMicro
	if req.MicroAssessment != nil {
		micro = *req.MicroAssessment
	}

	res, err := burnout.Score(moodAvg, micro, *req.MbiAssessment)
	if err != nil {
		s.respondError(r.Context(), w, kindForDomain(op, err))
		return
	}
	writeJSON(w, http.StatusOK, riskResponse{
		Result:  res,
		Color:   burnout.RiskColor(string(res.RiskLevel)),
		Icon:    burnout.RiskIcon(string(res.RiskLevel)),
		Insight: burnout.FormatInsight(res, burnout.TrendNone),
	})
}

// handleTrend classifies the change between two MBI snapshots.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.trend"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req trendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Current == nil || req.Previous == nil {
		s.respondError(r.Context(), w, WrapKind(op, ErrBadRequest, errors.New("current and previous are required")))
		return
	}
	var opts []burnout.TrendOption
	if req.MoodAverage != nil {
		opts = append(opts, burnout.WithMoodAverage(burnout.MoodAverage(*req.MoodAverage)))
	}
	trend, err := burnout.CalculateTrend(*req.Current, *req.Previous, opts...)
	if err != nil {
		s.respondError(r.Context(), w, kindForDomain(op, err))
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{Trend: trend, Icon: burnout.TrendIcon(trend)})
}

// handleStreak summarises a list of daily activity records.
func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	const op = "api.streak"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req streakRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	now := s.now()
	if req.Now != nil {
		now = *req.Now
	}
	current := streak.ActivityStreak(req.Activities, now)
	longest := streak.LongestStreak(req.Activities)
	resp := streakResponse{
		Current: current,
		Longest: longest,
		Message: streak.StreakMessage(current),
		Goal:    streak.WellnessGoal(current, longest),
	}
	if last, ok := streak.LastActivityDate(req.Activities); ok {
		resp.LastActivityDate = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

// kindForDomain turns scorer validation failures into bad requests.
func kindForDomain(op string, err error) error {
	if errors.Is(err, burnout.ErrInvalidInput) {
		return WrapKind(op, ErrBadRequest, err)
	}
	return Wrap(op, err)
}
