// audit_backend.go: JSONL and SQLite storage for bind events
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditBackend stores bind events.
type auditBackend interface {
	// Write persists a batch of events.
	Write(events []BindEvent) error

	// Query returns stored events, oldest first.
	Query(q AuditQuery) ([]BindEvent, error)

	// Close releases the backend. It must not be used afterwards.
	Close() error
}

// createAuditBackend picks JSONL for .jsonl paths and SQLite otherwise.
// When writable is false the JSONL file is not opened for appending.
func createAuditBackend(path string, writable bool) (auditBackend, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return newJSONLBackend(path, writable)
	}
	return newSQLiteBackend(path)
}

// sqliteAuditBackend keeps events in a bind_events table.
type sqliteAuditBackend struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	mu         sync.Mutex
	closed     bool
}

const createBindEventsSQL = `
CREATE TABLE IF NOT EXISTS bind_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	flag TEXT NOT NULL,
	grp TEXT NOT NULL,
	field TEXT NOT NULL,
	source TEXT NOT NULL,
	value TEXT NOT NULL,
	redacted INTEGER NOT NULL DEFAULT 0,
	process_id INTEGER NOT NULL,
	checksum TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bind_events_flag ON bind_events(flag);`

func newSQLiteBackend(path string) (*sqliteAuditBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, errors.Wrap(err, ErrCodeAudit,
				fmt.Sprintf("cannot create audit directory %s: %v", dir, err))
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot open audit database: %v", err))
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot open audit database: %v", err))
	}

	if _, err := db.Exec(createBindEventsSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot create audit schema: %v", err))
	}

	stmt, err := db.Prepare(`INSERT INTO bind_events
		(timestamp, flag, grp, field, source, value, redacted, process_id, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot prepare audit statement: %v", err))
	}

	return &sqliteAuditBackend{db: db, insertStmt: stmt}, nil
}

func (s *sqliteAuditBackend) Write(events []BindEvent) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("cannot write to closed SQLite audit backend")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt := tx.Stmt(s.insertStmt)
	defer func() { _ = stmt.Close() }()

	for _, ev := range events {
		redacted := 0
		if ev.Redacted {
			redacted = 1
		}
		if _, err = stmt.Exec(ev.Timestamp.Format(time.RFC3339Nano), ev.Flag, ev.Group, ev.Field,
			ev.Source, ev.Value, redacted, ev.ProcessID, ev.Checksum); err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) Query(q AuditQuery) ([]BindEvent, error) {
	query := `SELECT timestamp, flag, grp, field, source, value, redacted, process_id, checksum
		FROM bind_events`
	var args []interface{}
	if q.Flag != "" {
		query += " WHERE flag = ?"
		args = append(args, q.Flag)
	}
	query += " ORDER BY id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []BindEvent
	for rows.Next() {
		var (
			ev       BindEvent
			ts       string
			redacted int
		)
		if err := rows.Scan(&ts, &ev.Flag, &ev.Group, &ev.Field, &ev.Source, &ev.Value,
			&redacted, &ev.ProcessID, &ev.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		ev.Redacted = redacted != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *sqliteAuditBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.insertStmt != nil {
		_ = s.insertStmt.Close()
	}
	return s.db.Close()
}

// jsonlAuditBackend appends one JSON object per line.
type jsonlAuditBackend struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	closed bool
}

func newJSONLBackend(path string, writable bool) (*jsonlAuditBackend, error) {
	j := &jsonlAuditBackend{path: path}
	if !writable {
		return j, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit,
			fmt.Sprintf("cannot create audit directory: %v", err))
	}
	// #nosec G304 -- audit path is configured by the application
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit,
			fmt.Sprintf("cannot open audit log %s: %v", path, err))
	}
	j.file = file
	return j, nil
}

func (j *jsonlAuditBackend) Write(events []BindEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed || j.file == nil {
		return fmt.Errorf("cannot write to closed JSONL audit backend")
	}

	w := bufio.NewWriter(j.file)
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to serialize audit event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write audit events: %w", err)
	}
	return nil
}

func (j *jsonlAuditBackend) Query(q AuditQuery) ([]BindEvent, error) {
	// #nosec G304 -- audit path is configured by the application
	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var events []BindEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var ev BindEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if q.Flag != "" && ev.Flag != q.Flag {
			continue
		}
		events = append(events, ev)
		if q.Limit > 0 && len(events) == q.Limit {
			break
		}
	}
	return events, scanner.Err()
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if j.file == nil {
		return nil
	}
	if err := j.file.Sync(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
