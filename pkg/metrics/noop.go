package metrics

import "context"

// NoopCollector discards everything. It is the default when no collector is configured.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordOperation does nothing
func (n *NoopCollector) RecordOperation(ctx context.Context, backend string, status string, durationMs int64) {
}

// RecordError does nothing
func (n *NoopCollector) RecordError(ctx context.Context, backend string, errorType string) {
}

// AddInFlight does nothing
func (n *NoopCollector) AddInFlight(ctx context.Context, backend string, delta int64) {
}
