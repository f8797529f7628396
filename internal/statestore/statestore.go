// Package statestore persists the diagnostics trail to SQLite so connection
// history survives the process and can be inspected by an operator.
package statestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/state"
)

// Log is a persistent mirror of a diagnostics trail.
type Log struct {
	mu  sync.Mutex
	db  *sql.DB
	log *logging.Logger
}

// Open opens (or creates) the step log at path and runs migrations. Use
// ":memory:" for tests.
func Open(path string, log *logging.Logger) (*Log, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	l := &Log{db: db, log: log.Sub("statestore")}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	l.log.Info().Str("path", path).Msg("step log opened")
	return l, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS steps (
			seq INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL
		)
	`)
	return err
}

// Sync upserts the current trail snapshot. Steps are addressed by position,
// which is stable because the trail is append-only.
func (l *Log) Sync(elems []state.Element) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO steps (seq, name, status, started_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(seq) DO UPDATE SET status = excluded.status
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range elems {
		if _, err := stmt.Exec(i, e.Name, string(e.Status), e.StartedAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Watch subscribes to the trail and mirrors every mutation. Sync failures
// are logged, never propagated into dispatch.
func (l *Log) Watch(trail *state.Trail) {
	trail.Subscribe(func() {
		if err := l.Sync(trail.Elements()); err != nil {
			l.log.Warn().Err(err).Msg("persisting trail snapshot")
		}
	})
}

// Elements reads back all recorded steps in sequence order.
func (l *Log) Elements() ([]state.Element, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(`SELECT name, status, started_at FROM steps ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []state.Element
	for rows.Next() {
		var e state.Element
		var status, startedAt string
		if err := rows.Scan(&e.Name, &status, &startedAt); err != nil {
			return nil, err
		}
		e.Status = state.Status(status)
		ts, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			l.log.Warn().Err(err).Str("step", e.Name).Msg("parsing step timestamp")
		} else {
			e.StartedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
