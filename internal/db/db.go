// Package db persists dwell sessions to sqlite so an exhibition run can
// be inspected after the fact: which zones were occupied, for how long,
// and which composite masks were produced.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lumenwerk/panomask/internal/dwell"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the sqlite database at path. The schema is
// managed by migrations; call MigrateUp before first use.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single writer goroutine plus occasional readers; WAL keeps the
	// readers from blocking snapshot inserts.
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA foreign_keys = ON;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return &DB{db}, nil
}

// Session identifies one continuous run against a single panorama.
type Session struct {
	ID            string
	PanoramaID    string
	StartedUnix   int64
	SnapshotCount int
}

// Snapshot is one persisted dwell counter vector.
type Snapshot struct {
	ID            int64
	SessionID     string
	CapturedAt    time.Time
	Counters      []uint32
	CompositePath string
}

// BeginSession records the start of a run and returns its identifier.
func (db *DB) BeginSession(panoramaID string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, panorama_id, started_unix) VALUES (?, ?, ?)`,
		id, panoramaID, startedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// RecordSnapshot stores one counter vector under a session. The composite
// path may be empty when the cycle produced no mask.
func (db *DB) RecordSnapshot(sessionID string, at time.Time, counters []uint32, compositePath string) error {
	_, err := db.Exec(
		`INSERT INTO dwell_snapshots (session_id, captured_unix_ms, counters, composite_path)
		 VALUES (?, ?, ?, ?)`,
		sessionID, at.UnixMilli(), dwell.FormatCounters(counters), compositePath,
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// SessionRecorder binds snapshot persistence to a single session so the
// pipeline does not need to carry the session identifier around.
type SessionRecorder struct {
	db        *DB
	sessionID string
}

// Recorder returns a SessionRecorder for the given session.
func (db *DB) Recorder(sessionID string) *SessionRecorder {
	return &SessionRecorder{db: db, sessionID: sessionID}
}

func (r *SessionRecorder) RecordSnapshot(at time.Time, counters []uint32, compositePath string) error {
	return r.db.RecordSnapshot(r.sessionID, at, counters, compositePath)
}

// SnapshotsForSession returns a session's snapshots in capture order.
func (db *DB) SnapshotsForSession(sessionID string) ([]Snapshot, error) {
	rows, err := db.Query(
		`SELECT snapshot_id, session_id, captured_unix_ms, counters, composite_path
		 FROM dwell_snapshots
		 WHERE session_id = ?
		 ORDER BY captured_unix_ms, snapshot_id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var capturedMs int64
		var counters string
		if err := rows.Scan(&s.ID, &s.SessionID, &capturedMs, &counters, &s.CompositePath); err != nil {
			return nil, err
		}
		s.CapturedAt = time.UnixMilli(capturedMs)
		if s.Counters, err = dwell.ParseCounters(counters); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", s.ID, err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Sessions returns all recorded sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT s.session_id, s.panorama_id, s.started_unix, COUNT(d.snapshot_id)
		FROM sessions s
		LEFT JOIN dwell_snapshots d ON d.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.started_unix DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.PanoramaID, &s.StartedUnix, &s.SnapshotCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
