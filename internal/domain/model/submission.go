// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
)

// Kind identifies what a submission carries.
type Kind string

// Submission kinds.
const (
	KindMood     Kind = "mood"
	KindMicro    Kind = "micro"
	KindMBI      Kind = "mbi"
	KindActivity Kind = "activity"
)

// Wellness activity types recorded by the app.
const (
	ActivityBoxBreathing = "box_breathing"
	ActivityStretching   = "stretching"
)

// Sentinel errors for submission validation.
var (
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Submission is one self-report sent by a user. Exactly one payload field is
// set, matching Kind.
type Submission struct {
	SubmissionID string    // unique id for idempotency
	UserID       string    // subject identifier
	Kind         Kind      // payload selector
	TS           time.Time // when the user submitted it

	Mood     string
	Micro    *burnout.MicroAssessment
	MBI      *burnout.MbiAssessment
	Activity string
}

// Validate checks identifiers and that the payload matches Kind.
func (s *Submission) Validate() error {
	switch {
	case strings.TrimSpace(s.SubmissionID) == "":
		return fmt.Errorf("%w: missing submission_id", ErrInvalidSubmission)
	case strings.TrimSpace(s.UserID) == "":
		return fmt.Errorf("%w: missing user_id", ErrInvalidSubmission)
	case s.TS.IsZero():
		return fmt.Errorf("%w: missing ts", ErrInvalidSubmission)
	}

	switch s.Kind {
	case KindMood:
		if _, ok := mood.Value(s.Mood); !ok {
			return fmt.Errorf("%w: unknown mood %q", ErrInvalidSubmission, s.Mood)
		}
	case KindMicro:
		if s.Micro == nil {
			return fmt.Errorf("%w: missing micro payload", ErrInvalidSubmission)
		}
		if err := s.Micro.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
		}
	case KindMBI:
		if s.MBI == nil {
			return fmt.Errorf("%w: missing mbi payload", ErrInvalidSubmission)
		}
		if err := s.MBI.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
		}
	case KindActivity:
		if s.Activity != ActivityBoxBreathing && s.Activity != ActivityStretching {
			return fmt.Errorf("%w: unknown activity %q", ErrInvalidSubmission, s.Activity)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSubmission, s.Kind)
	}
	return nil
}
