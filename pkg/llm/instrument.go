package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/dan-solli/llmadapter/pkg/metrics"
	"github.com/dan-solli/llmadapter/pkg/trace"
	"github.com/google/uuid"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type instrumented struct {
	backend   string
	next      Client
	collector metrics.Collector
	exporter  trace.Exporter
	logger    *slog.Logger
}

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumented)

// WithCollector records request metrics to c.
func WithCollector(c metrics.Collector) InstrumentOption {
	return func(i *instrumented) { i.collector = c }
}

// WithExporter exports one trace record per Generate call to e.
func WithExporter(e trace.Exporter) InstrumentOption {
	return func(i *instrumented) { i.exporter = e }
}

// WithInstrumentLogger sets the logger used for export failures.
func WithInstrumentLogger(l *slog.Logger) InstrumentOption {
	return func(i *instrumented) { i.logger = l }
}

// Instrument wraps c so that each Generate call is measured and traced.
// Results and errors from c are returned unchanged.
func Instrument(backend string, c Client, opts ...InstrumentOption) Client {
	i := &instrumented{
		backend:   backend,
		next:      c,
		collector: metrics.NewNoopCollector(),
		exporter:  trace.NewNoopExporter(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *instrumented) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	start := time.Now()
	i.collector.AddInFlight(ctx, i.backend, 1)
	resp, err := i.next.Generate(ctx, req)
	i.collector.AddInFlight(ctx, i.backend, -1)
	elapsed := time.Since(start).Milliseconds()

	record := &trace.TraceRecord{
		Timestamp:   start,
		OperationID: uuid.New().String(),
		Operation:   "generate",
		Backend:     i.backend,
		Structured:  req.wantsJSON(),
		DurationMs:  elapsed,
		Counters: map[string]int64{
			"promptChars": int64(len(req.UserPrompt) + len(req.SystemPrompt)),
		},
	}

	if err != nil {
		errType := ClassifyError(err)
		i.collector.RecordOperation(ctx, i.backend, statusError, elapsed)
		i.collector.RecordError(ctx, i.backend, errType)
		record.Status = statusError
		record.ErrorType = errType
	} else {
		i.collector.RecordOperation(ctx, i.backend, statusSuccess, elapsed)
		record.Status = statusSuccess
		record.ResultKind = "text"
		if resp.IsJSON() {
			record.ResultKind = "json"
		}
		record.Counters["responseChars"] = int64(len(resp.Text()))
	}

	if exportErr := i.exporter.Export(ctx, record); exportErr != nil {
		i.logger.WarnContext(ctx, "trace export failed", "backend", i.backend, "operation_id", record.OperationID, "error", exportErr)
	}
	return resp, err
}

func (i *instrumented) Capabilities() Capabilities {
	return i.next.Capabilities()
}
