// Package metrics records per-backend generation metrics.
package metrics

import "context"

// Collector is the interface for metrics collection.
// Implementations include the Prometheus-backed collector and the no-op collector.
// Implementations must be safe for concurrent use.
type Collector interface {
	RecordOperation(ctx context.Context, backend string, status string, durationMs int64)
	RecordError(ctx context.Context, backend string, errorType string)
	AddInFlight(ctx context.Context, backend string, delta int64)
}
