// Package history keeps an audit log of scan session outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/qrscan/core"
)

var migrations = []string{`
CREATE TABLE IF NOT EXISTS scan_history (
	id         TEXT PRIMARY KEY,
	handle     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	code       TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS scan_history_created_at ON scan_history (created_at DESC)`,
}

// Entry is one recorded terminal event.
type Entry struct {
	ID        string
	Handle    core.Handle
	Kind      core.TerminalKind
	Source    core.Source
	Code      string
	Reason    string
	CreatedAt time.Time
}

// EntryFrom converts a terminal event.
func EntryFrom(h core.Handle, t core.TerminalEvent) Entry {
	e := Entry{ID: core.NewID(), Handle: h, Kind: t.Kind, Source: t.Source, Code: t.Code, CreatedAt: t.Timestamp}
	if t.Reason != nil {
		e.Reason = t.Reason.Error()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}

// Store provides SQLite-backed persistence for scan outcomes.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) and migrates a history database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range migrations {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record inserts an entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if e.Handle == "" {
		return fmt.Errorf("handle is required")
	}
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO scan_history (id, handle, kind, source, code, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Handle), string(e.Kind), string(e.Source), e.Code, e.Reason, toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, handle, kind, source, code, reason, created_at
		 FROM scan_history
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var handle, kind, source string
		var created int64
		if err := rows.Scan(&e.ID, &handle, &kind, &source, &e.Code, &e.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Handle = core.Handle(handle)
		e.Kind = core.TerminalKind(kind)
		e.Source = core.Source(source)
		e.CreatedAt = fromMillis(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return out, nil
}

// ErrNotFound is returned by Get for unknown handles.
var ErrNotFound = errors.New("scan history entry not found")

// Get returns the entry recorded for a session handle.
func (s *Store) Get(ctx context.Context, h core.Handle) (Entry, error) {
	if s == nil || s.sqlDB == nil {
		return Entry{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, kind, source, code, reason, created_at
		 FROM scan_history WHERE handle = ? ORDER BY created_at DESC LIMIT 1`, string(h))
	e := Entry{Handle: h}
	var kind, source string
	var created int64
	if err := row.Scan(&e.ID, &kind, &source, &e.Code, &e.Reason, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get scan: %w", err)
	}
	e.Kind = core.TerminalKind(kind)
	e.Source = core.Source(source)
	e.CreatedAt = fromMillis(created)
	return e, nil
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
