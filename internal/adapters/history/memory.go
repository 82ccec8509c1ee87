package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
	"github.com/okian/wellmed/internal/domain/streak"
)

type timedMicro struct {
	at time.Time
	m  burnout.MicroAssessment
}

type timedMBI struct {
	at time.Time
	m  burnout.MbiAssessment
}

type userHistory struct {
	moods []mood.Entry
	micro []timedMicro
	mbi   []timedMBI
	days  map[time.Time]struct{}
}

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userHistory
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userHistory)}
}

func (s *MemoryStore) user(userID string) *userHistory {
	u, ok := s.users[userID]
	if !ok {
		u = &userHistory{days: make(map[time.Time]struct{})}
		s.users[userID] = u
	}
	return u
}

// AddMood records a mood entry, keeping entries in timestamp order.
func (s *MemoryStore) AddMood(_ context.Context, userID string, e mood.Entry) error {
	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	i := sort.Search(len(u.moods), func(i int) bool { return u.moods[i].Timestamp.After(e.Timestamp) })
	u.moods = append(u.moods, mood.Entry{})
	copy(u.moods[i+1:], u.moods[i:])
	u.moods[i] = e
	return nil
}

// AddMicro records a micro assessment taken at at.
func (s *MemoryStore) AddMicro(_ context.Context, userID string, at time.Time, m burnout.MicroAssessment) error {
	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	i := sort.Search(len(u.micro), func(i int) bool { return u.micro[i].at.After(at) })
	u.micro = append(u.micro, timedMicro{})
	copy(u.micro[i+1:], u.micro[i:])
	u.micro[i] = timedMicro{at: at, m: m}
	return nil
}

// AddMBI records an MBI snapshot taken at at.
func (s *MemoryStore) AddMBI(_ context.Context, userID string, at time.Time, m burnout.MbiAssessment) error {
	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	i := sort.Search(len(u.mbi), func(i int) bool { return u.mbi[i].at.After(at) })
	u.mbi = append(u.mbi, timedMBI{})
	copy(u.mbi[i+1:], u.mbi[i:])
	u.mbi[i] = timedMBI{at: at, m: m}
	return nil
}

// AddActivity marks the UTC day of at as active.
func (s *MemoryStore) AddActivity(_ context.Context, userID string, at time.Time, _ string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).days[activityDay(at)] = struct{}{}
	return nil
}

// Snapshot returns a copy of the user's recent history.
func (s *MemoryStore) Snapshot(_ context.Context, userID string, moodWindow int) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return Snapshot{}, ErrUnknownUser
	}

	snap := Snapshot{UserID: userID}
	start := 0
	if moodWindow > 0 && len(u.moods) > moodWindow {
		start = len(u.moods) - moodWindow
	}
	snap.Moods = append([]mood.Entry(nil), u.moods[start:]...)

	if n := len(u.micro); n > 0 {
		m := u.micro[n-1].m
		snap.LatestMicro = &m
	}
	if n := len(u.mbi); n > 0 {
		latest := u.mbi[n-1].m
		snap.LatestMBI = &latest
		if n > 1 {
			prev := u.mbi[n-2].m
			snap.PreviousMBI = &prev
		}
	}

	for d := range u.days {
		snap.Activities = append(snap.Activities, streak.Activity{Date: d, HasActivity: true})
	}
	sort.Slice(snap.Activities, func(i, j int) bool {
		return snap.Activities[i].Date.After(snap.Activities[j].Date)
	})
	return snap, nil
}

// Users returns every known user id, sorted.
func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
