package feedback

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vorgateway/gateway/pkg/contracts"
)

const defaultQueueSize = 256

// MultiSink fans a record out to every configured sink. Submission hands
// the record to a buffered channel drained by a background worker, so a
// slow or failing sink never blocks request processing.
type MultiSink struct {
	sinks  []Sink
	tracer trace.Tracer
	queue  chan contracts.FeedbackRecord
	done   chan struct{}
	logger *slog.Logger
}

// NewMultiSink starts a MultiSink fanning out to sinks, recording an OTel
// span event on the request's trace for every submission. tracer may be
// nil to skip span-event recording.
func NewMultiSink(sinks []Sink, tracer trace.Tracer, logger *slog.Logger) *MultiSink {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MultiSink{
		sinks:  sinks,
		tracer: tracer,
		queue:  make(chan contracts.FeedbackRecord, defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger.With("component", "feedback.multisink"),
	}
	go m.run()
	return m
}

// Submit enqueues record for fan-out and returns immediately; it never
// blocks on a slow sink.
func (m *MultiSink) Submit(ctx context.Context, record contracts.FeedbackRecord) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.AddEvent("feedback.submit", trace.WithAttributes(
			attribute.String("feedback.stage", string(record.Stage)),
			attribute.String("feedback.request_id", record.RequestID),
			attribute.String("feedback.result", record.Result),
		))
	}

	select {
	case m.queue <- record:
		return nil
	default:
		m.logger.WarnContext(ctx, "feedback queue full, dropping record", "request_id", record.RequestID, "stage", record.Stage)
		return nil
	}
}

func (m *MultiSink) run() {
	ctx := context.Background()
	for {
		select {
		case record := <-m.queue:
			for _, sink := range m.sinks {
				if err := sink.Submit(ctx, record); err != nil {
					m.logger.ErrorContext(ctx, "sink submit failed", "error", err, "request_id", record.RequestID)
				}
			}
		case <-m.done:
			return
		}
	}
}

// Stop drains no further records and stops the background worker. Records
// already queued but not yet delivered are dropped.
func (m *MultiSink) Stop() {
	close(m.done)
}
