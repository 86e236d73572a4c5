// Package archive copies behavior history out of the capped JSON documents
// into a local SQLite database, so sessions and detected gaps survive the
// rolling 50/30-entry limits. The archive is a one-way sink: it never writes
// back to the tracker documents.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vreme-ai/vreme/internal/models"

	_ "modernc.org/sqlite"
)

// Archive wraps the SQLite history database.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at the given path.
func Open(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// SQLite only supports one concurrent writer; a single connection
	// serializes all access through Go's connection pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate creates the archive tables. Idempotent.
func (a *Archive) Migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL,
			duration_mins REAL NOT NULL,
			interaction_count INTEGER NOT NULL,
			timezone TEXT NOT NULL DEFAULT '',
			project TEXT NOT NULL DEFAULT '',
			UNIQUE(session_id, started_at)
		)`,
		`CREATE TABLE IF NOT EXISTS sleep_gaps (
			id TEXT PRIMARY KEY,
			gap_start DATETIME NOT NULL UNIQUE,
			gap_end DATETIME NOT NULL,
			gap_length_mins INTEGER NOT NULL,
			detected_at_hour INTEGER NOT NULL,
			timezone TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS lunch_gaps (
			id TEXT PRIMARY KEY,
			gap_start DATETIME NOT NULL UNIQUE,
			gap_end DATETIME NOT NULL,
			gap_length_mins INTEGER NOT NULL,
			detected_at_hour INTEGER NOT NULL,
			timezone TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS context_switches (
			id TEXT PRIMARY KEY,
			switched_at DATETIME NOT NULL UNIQUE,
			gap_hours REAL NOT NULL,
			from_project TEXT NOT NULL DEFAULT '',
			to_project TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range schema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create archive schema: %w", err)
		}
	}
	return nil
}

// StoreBehavior copies completed sessions and detected gaps into the
// archive, skipping rows already present. Returns the number of new rows.
func (a *Archive) StoreBehavior(ctx context.Context, bc *models.BehaviorContext) (int64, error) {
	var inserted int64

	for _, s := range bc.CompletedSessions {
		res, err := a.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sessions
			 (id, session_id, started_at, ended_at, duration_mins, interaction_count, timezone, project)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			newULID(), s.SessionID, s.BurstStart.UTC(), s.BurstEnd.UTC(),
			s.BurstLengthMins, s.InteractionCount, s.Timezone, s.Project)
		if err != nil {
			return inserted, fmt.Errorf("archive session: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	for _, g := range bc.EstimatedSleepGaps {
		res, err := a.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sleep_gaps
			 (id, gap_start, gap_end, gap_length_mins, detected_at_hour, timezone)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			newULID(), g.GapStart.UTC(), g.GapEnd.UTC(), g.GapLengthMins, g.DetectedAtHour, g.Timezone)
		if err != nil {
			return inserted, fmt.Errorf("archive sleep gap: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	for _, g := range bc.EstimatedLunchGaps {
		res, err := a.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO lunch_gaps
			 (id, gap_start, gap_end, gap_length_mins, detected_at_hour, timezone)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			newULID(), g.GapStart.UTC(), g.GapEnd.UTC(), g.GapLengthMins, g.DetectedAtHour, g.Timezone)
		if err != nil {
			return inserted, fmt.Errorf("archive lunch gap: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	return inserted, nil
}

// StoreActivity copies context switches from the global activity record.
func (a *Archive) StoreActivity(ctx context.Context, ga *models.GlobalActivity) (int64, error) {
	var inserted int64
	for _, cs := range ga.ContextSwitches {
		res, err := a.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO context_switches
			 (id, switched_at, gap_hours, from_project, to_project)
			 VALUES (?, ?, ?, ?, ?)`,
			newULID(), cs.Timestamp.UTC(), cs.GapHours, cs.FromProject, cs.ToProject)
		if err != nil {
			return inserted, fmt.Errorf("archive context switch: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}

// ArchivedSession is one archived session row.
type ArchivedSession struct {
	ID               string
	SessionID        string
	StartedAt        time.Time
	EndedAt          time.Time
	DurationMins     float64
	InteractionCount int
	Timezone         string
	Project          string
}

// RecentSessions returns the most recently started archived sessions.
func (a *Archive) RecentSessions(ctx context.Context, limit int) ([]ArchivedSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, session_id, started_at, ended_at, duration_mins, interaction_count, timezone, project
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []ArchivedSession
	for rows.Next() {
		var s ArchivedSession
		if err := rows.Scan(&s.ID, &s.SessionID, &s.StartedAt, &s.EndedAt,
			&s.DurationMins, &s.InteractionCount, &s.Timezone, &s.Project); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Counts reports row counts per archive table.
type Counts struct {
	Sessions        int
	SleepGaps       int
	LunchGaps       int
	ContextSwitches int
}

// Count returns archive table sizes, for the history summary.
func (a *Archive) Count(ctx context.Context) (Counts, error) {
	var c Counts
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM sessions", &c.Sessions},
		{"SELECT COUNT(*) FROM sleep_gaps", &c.SleepGaps},
		{"SELECT COUNT(*) FROM lunch_gaps", &c.LunchGaps},
		{"SELECT COUNT(*) FROM context_switches", &c.ContextSwitches},
	}
	for _, q := range queries {
		if err := a.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return c, fmt.Errorf("count archive rows: %w", err)
		}
	}
	return c, nil
}
