package model

import "time"

// LogLevel is the severity of a processing log entry.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry is one append-only diagnostic event for a document. Consumers
// read entries in ascending CreatedAt order.
type LogEntry struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	Level      LogLevel       `json:"level"`
	Message    string         `json:"message"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
