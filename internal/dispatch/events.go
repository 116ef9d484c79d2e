package dispatch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// LogEvent represents a single run-log event.
type LogEvent struct {
	// Type is the event type: launch, exit, kill, error, summary
	Type string `json:"type"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// TaskID identifies the task the event belongs to, if any
	TaskID string `json:"task_id,omitempty"`

	// Command is the full command line (for launch events)
	Command []string `json:"command,omitempty"`

	// ExitCode is the process exit code (for exit events)
	ExitCode int `json:"exit_code,omitempty"`

	// Content is free-form detail (for error and summary events)
	Content string `json:"content,omitempty"`
}

// LogWriter writes run-log events.
type LogWriter interface {
	Write(event LogEvent) error
}

// IOStreamLogWriter writes log events as JSON lines to an io.Writer.
type IOStreamLogWriter struct {
	w io.Writer
}

// NewIOStreamLogWriter creates a new log writer that writes to w.
func NewIOStreamLogWriter(w io.Writer) *IOStreamLogWriter {
	return &IOStreamLogWriter{w: w}
}

// Write writes a log event to the underlying writer.
func (l *IOStreamLogWriter) Write(event LogEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}
	data = append(data, '\n')
	_, err = l.w.Write(data)
	return err
}

// MultiLogWriter writes to multiple log writers.
type MultiLogWriter struct {
	writers []LogWriter
}

// NewMultiLogWriter creates a new multi-log writer.
func NewMultiLogWriter(writers ...LogWriter) *MultiLogWriter {
	return &MultiLogWriter{writers: writers}
}

// Write writes the event to all underlying writers.
func (m *MultiLogWriter) Write(event LogEvent) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi-writer errors: %v", errs)
	}
	return nil
}

// NullLogWriter is a no-op log writer.
type NullLogWriter struct{}

// Write does nothing.
func (NullLogWriter) Write(event LogEvent) error {
	return nil
}

type lockedLogWriter struct {
	mu     sync.Mutex
	writer LogWriter
}

func (l *lockedLogWriter) Write(event LogEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Write(event)
}

func normalizeLogWriter(writer LogWriter) LogWriter {
	if writer == nil {
		return NullLogWriter{}
	}
	return &lockedLogWriter{writer: writer}
}
