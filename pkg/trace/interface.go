// Package trace exports per-call generation traces to files or SQLite.
package trace

import (
	"context"
	"time"
)

// Exporter defines the interface for exporting generation traces.
// Implementations must be safe for concurrent use.
type Exporter interface {
	// Export writes a trace record to the configured destination.
	Export(ctx context.Context, record *TraceRecord) error

	// Close flushes any buffered records and releases resources.
	// Should be called during graceful shutdown.
	Close() error
}

// TraceRecord describes one Generate call.
// It never carries prompts, responses or credentials.
type TraceRecord struct {
	// Timestamp is the call start time
	Timestamp time.Time `json:"timestamp"`

	// OperationID uniquely identifies this call (for correlation)
	OperationID string `json:"operationId"`

	// Operation is the operation type, currently always "generate"
	Operation string `json:"operation"`

	// Backend is the backend family, e.g. "openai" or "ollama"
	Backend string `json:"backend"`

	// Structured is true when a JSON schema was requested
	Structured bool `json:"structured"`

	// ResultKind is "json" or "text" on success
	ResultKind string `json:"resultKind,omitempty"`

	DurationMs int64 `json:"durationMs"`

	// Status is "success" or "error"
	Status string `json:"status"`

	// ErrorType classifies the error (if Status == "error")
	// Values: configuration, transport, protocol, timeout, unknown
	ErrorType string `json:"errorType,omitempty"`

	// Counters carries sizes only, e.g. promptChars, responseChars
	Counters map[string]int64 `json:"counters,omitempty"`
}

// FileExporterOption configures a FileExporter.
type FileExporterOption func(*FileExporter)
