// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records session lifecycle events as JSON lines with
// secrets redacted.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

const (
	EventLogin                  = "LOGIN"
	EventLoginFailed            = "LOGIN_FAILED"
	EventLogout                 = "LOGOUT"
	EventRehydrate              = "REHYDRATE"
	EventRehydrateFailed        = "REHYDRATE_FAILED"
	EventTokenChangedExternally = "TOKEN_CHANGED_EXTERNALLY"
	EventAccessDenied           = "ACCESS_DENIED"
)

// =============================================================================
// AUDIT EVENT
// =============================================================================

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SessionID string            `json:"session_id"`
	User      string            `json:"user,omitempty"`
	Role      string            `json:"role,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event for human reading.
func (e *Event) ToLogLine() string {
	status := "SUCCESS"
	if !e.Success {
		if e.Error != "" {
			status = fmt.Sprintf("ERROR: %s", e.Error)
		} else {
			status = "FAILURE"
		}
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s | %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.EventType,
		e.SessionID,
		e.User,
		e.Role,
		status,
	)
}

// =============================================================================
// REDACTION
// =============================================================================

// Redactor replaces sensitive data in a string.
type Redactor interface {
	Redact(input string) string
	Name() string
}

// PatternRedactor redacts text matching a regex pattern.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

func NewPatternRedactor(name string, pattern *regexp.Regexp, replace string) *PatternRedactor {
	return &PatternRedactor{name: name, pattern: pattern, replace: replace}
}

func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

func (r *PatternRedactor) Name() string { return r.name }

var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"Bearer", regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{"JWT", regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{"Password", regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*\S+`), "[PASSWORD_REDACTED]"},
	{"AccessToken", regexp.MustCompile(`(?i)"?access_token"?\s*[=:]\s*"?[^",\s}]+"?`), "[ACCESS_TOKEN_REDACTED]"},
}

// DefaultRedactors returns the built-in secret redactors.
func DefaultRedactors() []Redactor {
	redactors := make([]Redactor, 0, len(secretPatterns))
	for _, sp := range secretPatterns {
		redactors = append(redactors, NewPatternRedactor(sp.name, sp.pattern, sp.replace))
	}
	return redactors
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger appends events to a writer. A nil *Logger discards everything, so
// callers never need to check whether auditing is enabled.
type Logger struct {
	mu        sync.Mutex
	w         io.Writer
	closer    io.Closer
	sessionID string
	redactors []Redactor
	now       func() time.Time
}

// Open appends to the log file at path, creating it with 0600.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	l := New(file)
	l.closer = file
	return l, nil
}

// New logs to w under a fresh per-process session id.
func New(w io.Writer) *Logger {
	return &Logger{
		w:         w,
		sessionID: uuid.NewString(),
		redactors: DefaultRedactors(),
		now:       time.Now,
	}
}

// SessionID returns the id stamped on every event from this logger.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Log redacts and writes one event.
func (l *Logger) Log(event Event) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	event.SessionID = l.sessionID
	event.Error = l.redact(event.Error)
	if event.Metadata != nil {
		md := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			md[k] = l.redact(v)
		}
		event.Metadata = md
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}
	data = append(data, '\n')
	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Record is Log for callers with nothing to do about a write failure.
func (l *Logger) Record(eventType string, success bool, err error, user, role string, metadata map[string]string) {
	e := Event{
		EventType: eventType,
		User:      user,
		Role:      role,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if logErr := l.Log(e); logErr != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", logErr)
	}
}

func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.closer.Close()
	l.closer = nil
	return err
}

func (l *Logger) redact(s string) string {
	if s == "" {
		return s
	}
	for _, r := range l.redactors {
		s = r.Redact(s)
	}
	return s
}
