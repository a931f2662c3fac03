// audit.go: Audit trail of bound flags
//
// Every flag written by Parse can be recorded with the source its value
// came from. Values that came from a secret resolver are redacted before
// they reach the backend.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// Value sources recorded in BindEvent.Source. Properties sources are
// "properties:" followed by the file path.
const (
	SourceCommandLine      = "command-line"
	SourceSecret           = "secret"
	SourcePropertiesPrefix = "properties:"
)

// RedactedValue replaces secret values in logs and audit events.
const RedactedValue = "[REDACTED]"

// BindEvent records one flag written by Parse.
type BindEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Flag      string    `json:"flag"`
	Group     string    `json:"group"`
	Field     string    `json:"field"`
	Source    string    `json:"source"`
	Value     string    `json:"value"`
	Redacted  bool      `json:"redacted,omitempty"`
	ProcessID int       `json:"process_id"`
	Checksum  string    `json:"checksum"`
}

// AuditConfig configures an AuditLogger.
type AuditConfig struct {
	// OutputFile selects the backend: a .jsonl file is appended to, any
	// other path is a SQLite database.
	OutputFile string

	// BufferSize is the number of events held before an automatic flush.
	BufferSize int
}

// DefaultAuditConfig stores events in a SQLite database under the system
// temporary directory.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		OutputFile: filepath.Join(os.TempDir(), "vexil", "bind-audit.db"),
		BufferSize: 256,
	}
}

// AuditQuery filters events returned by QueryAudit.
type AuditQuery struct {
	// Flag restricts results to one flag name when not empty.
	Flag string

	// Limit caps the number of events; zero means no limit.
	Limit int
}

// AuditLogger buffers bind events and writes them to a backend. It is safe
// for concurrent use.
type AuditLogger struct {
	config    AuditConfig
	backend   auditBackend
	buffer    []BindEvent
	mu        sync.Mutex
	processID int
}

// NewAuditLogger opens the backend selected by config.OutputFile.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if config.OutputFile == "" {
		return nil, errors.New(ErrCodeInvalidArgument, "audit output file cannot be empty")
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultAuditConfig().BufferSize
	}

	backend, err := createAuditBackend(config.OutputFile, true)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		config:    config,
		backend:   backend,
		buffer:    make([]BindEvent, 0, config.BufferSize),
		processID: os.Getpid(),
	}, nil
}

// LogBind records ev. The timestamp, process ID and checksum are filled in;
// values from SourceSecret are redacted.
func (al *AuditLogger) LogBind(ev BindEvent) error {
	if al == nil || al.backend == nil {
		return nil
	}

	ev.Timestamp = timecache.CachedTime()
	ev.ProcessID = al.processID
	if ev.Source == SourceSecret {
		ev.Value = RedactedValue
		ev.Redacted = true
	}
	ev.Checksum = checksum(ev)

	al.mu.Lock()
	defer al.mu.Unlock()
	al.buffer = append(al.buffer, ev)
	if len(al.buffer) >= al.config.BufferSize {
		return al.flushLocked()
	}
	return nil
}

// Flush writes all buffered events.
func (al *AuditLogger) Flush() error {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.flushLocked()
}

// Close flushes pending events and releases the backend.
func (al *AuditLogger) Close() error {
	if err := al.Flush(); err != nil {
		return err
	}

	al.mu.Lock()
	defer al.mu.Unlock()
	if al.backend == nil {
		return nil
	}
	err := al.backend.Close()
	al.backend = nil
	if err != nil {
		return errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot close audit backend: %v", err))
	}
	return nil
}

func (al *AuditLogger) flushLocked() error {
	if len(al.buffer) == 0 || al.backend == nil {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot write audit events: %v", err))
	}
	al.buffer = al.buffer[:0]
	return nil
}

// QueryAudit reads events from an audit file written by an AuditLogger,
// oldest first.
func QueryAudit(path string, q AuditQuery) ([]BindEvent, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot open audit file %s: %v", path, err)).
			WithContext("file", path)
	}

	backend, err := createAuditBackend(path, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = backend.Close() }()

	events, err := backend.Query(q)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("cannot query audit file %s: %v", path, err)).
			WithContext("file", path)
	}
	return events, nil
}

// checksum detects tampering with stored events.
func checksum(ev BindEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%d",
		ev.Timestamp.Format(time.RFC3339Nano), ev.Flag, ev.Field, ev.Source, ev.Value, ev.ProcessID)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}
