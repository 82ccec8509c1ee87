// Package loadgen drives a running wellmed service with synthetic users and
// checks the resulting watchlist.
package loadgen

import (
	"errors"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/model"
	"github.com/okian/wellmed/internal/domain/types"
)

// Sentinel errors reported by Run.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrVerification = errors.New("verification failed")
	ErrInvalidRun   = errors.New("invalid load configuration")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL string        // service base URL
	Users   int           // synthetic users to create
	Workers int           // concurrent submitters
	Timeout time.Duration // per request timeout
	Wait    time.Duration // how long to wait for profiles to appear
	Top     int           // watchlist entries to fetch
	Token   string        // bearer token; needs the clinician role when auth is on
	Seed    uint64        // generator seed
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidRun, errors.New("base url is required"))
	case c.Users < 1:
		return errors.Join(ErrInvalidRun, errors.New("users must be positive"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidRun, errors.New("workers must be positive"))
	case c.Top < 1:
		return errors.Join(ErrInvalidRun, errors.New("top must be positive"))
	}
	return nil
}

// Submission is the JSON body posted to /v1/submissions.
type Submission struct {
	SubmissionID string                   `json:"submission_id"`
	UserID       string                   `json:"user_id"`
	Kind         model.Kind               `json:"kind"`
	TS           time.Time                `json:"ts"`
	Mood         string                   `json:"mood,omitempty"`
	Micro        *burnout.MicroAssessment `json:"micro,omitempty"`
	MBI          *burnout.MbiAssessment   `json:"mbi,omitempty"`
	Activity     string                   `json:"activity,omitempty"`
}

// Stats summarises a run.
type Stats struct {
	Users            int
	Submitted        int64
	Accepted         int64
	Duplicate        int64
	Rejected         int64
	Failed           int64
	Profiles         int
	WatchlistEntries int
	Duration         time.Duration
	Top              []types.Entry
}
