// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit provides a persistent log of security-relevant events.
//
// Protocol and security-level rejections (origin mismatches, expired or
// reused elicitations, refused content) are terminal for their single
// operation; the audit log is where they become visible without leaking
// internal detail to the rendered sandbox.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// EVENT TYPES
// =============================================================================

const (
	// EventOriginMismatch records an inbound sandbox message dropped for
	// carrying a foreign origin.
	EventOriginMismatch = "ORIGIN_MISMATCH"

	// EventMessageRejected records a malformed or oversized sandbox message.
	EventMessageRejected = "MESSAGE_REJECTED"

	// EventContentRejected records content refused by the sanitizer or
	// classifier.
	EventContentRejected = "CONTENT_REJECTED"

	// EventElicitationConsumed records a successful elicitation consume.
	EventElicitationConsumed = "ELICITATION_CONSUMED"

	// EventElicitationRejected records a NotFound/Expired/AlreadyUsed
	// elicitation submission.
	EventElicitationRejected = "ELICITATION_REJECTED"

	// EventToolDispatch records a tool invocation start or completion.
	EventToolDispatch = "TOOL_DISPATCH"
)

// Event is a single audit log entry.
type Event struct {
	ID        int64             `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// =============================================================================
// LOG
// =============================================================================

// Log is a SQLite-backed audit log. Safe for concurrent use.
type Log struct {
	mu sync.Mutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  TEXT NOT NULL,
	event_type TEXT NOT NULL,
	detail     TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);
`

// Open creates or opens an audit log at the given path.
// Use ":memory:" for an ephemeral log in tests.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

// Record appends an event to the log.
func (l *Log) Record(eventType string, detail map[string]string) error {
	var detailJSON []byte
	if len(detail) > 0 {
		var err error
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to encode audit detail: %w", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(
		"INSERT INTO audit_events (timestamp, event_type, detail) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano),
		eventType,
		string(detailJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// Recent returns up to n most recent events, newest first.
func (l *Log) Recent(n int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(
		"SELECT id, timestamp, event_type, detail FROM audit_events ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			ts        string
			detailRaw sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.EventType, &detailRaw); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = t
		}
		if detailRaw.Valid && detailRaw.String != "" {
			_ = json.Unmarshal([]byte(detailRaw.String), &ev.Detail)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountByType returns the number of recorded events of one type.
func (l *Log) CountByType(eventType string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var count int
	err := l.db.QueryRow(
		"SELECT COUNT(*) FROM audit_events WHERE event_type = ?", eventType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}
