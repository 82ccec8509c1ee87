package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wellmed/internal/adapters/mq/queue"
	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/model"
)

// Submission statuses reported to clients.
const (
	statusAccepted  = "accepted"
	statusDuplicate = "duplicate"
)

type submissionRequest struct {
	SubmissionID string                   `json:"submission_id,omitempty"`
	UserID       string                   `json:"user_id"`
	Kind         model.Kind               `json:"kind"`
	TS           *time.Time               `json:"ts,omitempty"`
	Mood         string                   `json:"mood,omitempty"`
	Micro        *burnout.MicroAssessment `json:"micro,omitempty"`
	MBI          *burnout.MbiAssessment   `json:"mbi,omitempty"`
	Activity     string                   `json:"activity,omitempty"`
}

type submissionResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
}

func newSubmissionID() string {
	return uuid.NewString()
}

// handleSubmission accepts one self-report for asynchronous scoring.
// Replays of a known submission_id answer 200 without enqueueing.
func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.submissions"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req submissionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(ctx, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sub := req.toModel(s.now, s.newID)
	if err := sub.Validate(); err != nil {
		s.respondError(ctx, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := s.authorizeUser(ctx, op, sub.UserID); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	if s.deps.SeenAndRecord(ctx, sub.SubmissionID) {
		writeJSON(w, http.StatusOK, submissionResponse{Status: statusDuplicate, SubmissionID: sub.SubmissionID})
		return
	}
	if err := s.deps.Enqueue(ctx, sub); err != nil {
		// Forget the id so the client can retry the same submission.
		s.deps.Unrecord(ctx, sub.SubmissionID)
		if errors.Is(err, queue.ErrFull) {
			s.respondError(ctx, w, WrapKind(op, ErrBackpressure, fmt.Errorf("queue full, retry later: %w", err)))
			return
		}
		s.respondError(ctx, w, WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusAccepted, submissionResponse{Status: statusAccepted, SubmissionID: sub.SubmissionID})
}

func (req *submissionRequest) toModel(now func() time.Time, newID func() string) model.Submission {
	sub := model.Submission{
		SubmissionID: strings.TrimSpace(req.SubmissionID),
		UserID:       strings.TrimSpace(req.UserID),
		Kind:         model.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind)))),
		Mood:         req.Mood,
		Micro:        req.Micro,
		MBI:          req.MBI,
		Activity:     req.Activity,
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = newID()
	}
	if req.TS != nil {
		sub.TS = req.TS.UTC()
	} else {
		sub.TS = now().UTC()
	}
	return sub
}
