// Package history stores the raw wellbeing records a risk profile is built
// from: mood entries, micro assessments, MBI snapshots and activity days.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
	"github.com/okian/wellmed/internal/domain/streak"
)

// Sentinel errors.
var (
	ErrUnknownUser = errors.New("unknown user")
	ErrInvalidUser = errors.New("user id must not be empty")
)

// Store persists per-user history. Implementations are safe for concurrent use.
type Store interface {
	AddMood(ctx context.Context, userID string, e mood.Entry) error
	AddMicro(ctx context.Context, userID string, at time.Time, m burnout.MicroAssessment) error
	AddMBI(ctx context.Context, userID string, at time.Time, m burnout.MbiAssessment) error
	AddActivity(ctx context.Context, userID string, at time.Time, activity string) error

	// Snapshot returns what scoring needs for one user. moodWindow bounds
	// the number of mood entries returned.
	Snapshot(ctx context.Context, userID string, moodWindow int) (Snapshot, error)

	// Users lists every user with at least one record, sorted.
	Users(ctx context.Context) ([]string, error)

	Close() error
}

// Snapshot is a user's recent history.
type Snapshot struct {
	UserID string

	// Moods holds the most recent entries, oldest first.
	Moods []mood.Entry

	LatestMicro *burnout.MicroAssessment
	LatestMBI   *burnout.MbiAssessment
	PreviousMBI *burnout.MbiAssessment

	// Activities has one record per active calendar day (UTC), newest first.
	Activities []streak.Activity
}

// activityDay truncates t to its UTC calendar day.
func activityDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
