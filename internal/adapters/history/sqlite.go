package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
	"github.com/okian/wellmed/internal/domain/streak"
)

const (
	memoryPath = ":memory:"
	// Fixed width so lexical order matches time order.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dayLayout  = "2006-01-02"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mood_entries (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		mood    TEXT NOT NULL,
		at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_user_at ON mood_entries(user_id, at)`,
	`CREATE TABLE IF NOT EXISTS micro_assessments (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		fatigue      INTEGER NOT NULL CHECK(fatigue BETWEEN 1 AND 5),
		stress       INTEGER NOT NULL CHECK(stress BETWEEN 1 AND 5),
		satisfaction INTEGER NOT NULL CHECK(satisfaction BETWEEN 1 AND 5),
		sleep        INTEGER NOT NULL CHECK(sleep BETWEEN 1 AND 5),
		at           TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_micro_user_at ON micro_assessments(user_id, at)`,
	`CREATE TABLE IF NOT EXISTS mbi_assessments (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ee      INTEGER NOT NULL CHECK(ee BETWEEN 0 AND 54),
		dp      INTEGER NOT NULL CHECK(dp BETWEEN 0 AND 30),
		pa      INTEGER NOT NULL CHECK(pa BETWEEN 0 AND 48),
		at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mbi_user_at ON mbi_assessments(user_id, at)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		activity TEXT NOT NULL,
		day      TEXT NOT NULL,
		at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_user_day ON activities(user_id, day)`,
}

// OpenDB opens a SQLite database at path, enables WAL and foreign keys and
// runs migrations. ":memory:" gives a private in-memory database.
func OpenDB(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// PRAGMAs are per connection and each :memory: connection is its own
	// database, so all access goes through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an opened and migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLiteStore opens path and returns a store that owns the connection.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db), nil
}

// insert registers the user and runs one insert in a single transaction.
func (s *SQLiteStore) insert(ctx context.Context, userID, query string, args ...any) error {
	if userID == "" {
		return ErrInvalidUser
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO users (id, created_at) VALUES (?, ?)`,
		userID, time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	committed = true
	return nil
}

func (s *SQLiteStore) AddMood(ctx context.Context, userID string, e mood.Entry) error {
	return s.insert(ctx, userID, `INSERT INTO mood_entries (user_id, mood, at) VALUES (?, ?, ?)`,
		userID, e.Mood, e.Timestamp.UTC().Format(timeLayout))
}

func (s *SQLiteStore) AddMicro(ctx context.Context, userID string, at time.Time, m burnout.MicroAssessment) error {
	return s.insert(ctx, userID,
		`INSERT INTO micro_assessments (user_id, fatigue, stress, satisfaction, sleep, at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, m.Fatigue, m.Stress, m.Satisfaction, m.Sleep, at.UTC().Format(timeLayout))
}

func (s *SQLiteStore) AddMBI(ctx context.Context, userID string, at time.Time, m burnout.MbiAssessment) error {
	return s.insert(ctx, userID, `INSERT INTO mbi_assessments (user_id, ee, dp, pa, at) VALUES (?, ?, ?, ?, ?)`,
		userID, m.EE, m.DP, m.PA, at.UTC().Format(timeLayout))
}

func (s *SQLiteStore) AddActivity(ctx context.Context, userID string, at time.Time, activity string) error {
	return s.insert(ctx, userID, `INSERT INTO activities (user_id, activity, day, at) VALUES (?, ?, ?, ?)`,
		userID, activity, activityDay(at).Format(dayLayout), at.UTC().Format(timeLayout))
}

func (s *SQLiteStore) Snapshot(ctx context.Context, userID string, moodWindow int) (Snapshot, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrUnknownUser
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading user: %w", err)
	}

	snap := Snapshot{UserID: userID}
	if snap.Moods, err = s.recentMoods(ctx, userID, moodWindow); err != nil {
		return Snapshot{}, err
	}

	var micro burnout.MicroAssessment
	err = s.db.QueryRowContext(ctx, `SELECT fatigue, stress, satisfaction, sleep FROM micro_assessments
		WHERE user_id = ? ORDER BY at DESC, id DESC LIMIT 1`, userID).
		Scan(&micro.Fatigue, &micro.Stress, &micro.Satisfaction, &micro.Sleep)
	switch {
	case err == nil:
		snap.LatestMicro = &micro
	case !errors.Is(err, sql.ErrNoRows):
		return Snapshot{}, fmt.Errorf("loading micro assessment: %w", err)
	}

	mbis, err := s.latestMBIs(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(mbis) > 0 {
		snap.LatestMBI = &mbis[0]
	}
	if len(mbis) > 1 {
		snap.PreviousMBI = &mbis[1]
	}

	if snap.Activities, err = s.activityDays(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *SQLiteStore) recentMoods(ctx context.Context, userID string, window int) ([]mood.Entry, error) {
	limit := window
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT mood, at FROM (
			SELECT id, mood, at FROM mood_entries WHERE user_id = ? ORDER BY at DESC, id DESC LIMIT ?
		) ORDER BY at ASC, id ASC`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading moods: %w", err)
	}
	defer rows.Close()

	var entries []mood.Entry
	for rows.Next() {
		var label, at string
		if err := rows.Scan(&label, &at); err != nil {
			return nil, fmt.Errorf("scanning mood: %w", err)
		}
		ts, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parsing mood time: %w", err)
		}
		entries = append(entries, mood.Entry{Mood: label, Timestamp: ts})
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) latestMBIs(ctx context.Context, userID string) ([]burnout.MbiAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ee, dp, pa FROM mbi_assessments
		WHERE user_id = ? ORDER BY at DESC, id DESC LIMIT 2`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading mbi assessments: %w", err)
	}
	defer rows.Close()

	var out []burnout.MbiAssessment
	for rows.Next() {
		var m burnout.MbiAssessment
		if err := rows.Scan(&m.EE, &m.DP, &m.PA); err != nil {
			return nil, fmt.Errorf("scanning mbi assessment: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) activityDays(ctx context.Context, userID string) ([]streak.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT day FROM activities WHERE user_id = ? ORDER BY day DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	defer rows.Close()

	var out []streak.Activity
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		d, err := time.Parse(dayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parsing activity day: %w", err)
		}
		out = append(out, streak.Activity{Date: d, HasActivity: true})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
