package feedback

import (
	"context"
	"log/slog"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// LogSink writes every feedback record as a structured log line. It is the
// default sink and is always on regardless of which other sinks are
// configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink writing through logger, or slog.Default()
// if logger is nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "feedback")}
}

// Submit logs record at info level.
func (s *LogSink) Submit(ctx context.Context, record contracts.FeedbackRecord) error {
	s.logger.InfoContext(ctx, "feedback",
		"stage", record.Stage,
		"request_id", record.RequestID,
		"issuer_id", record.IssuerID,
		"priority", record.Priority,
		"result", record.Result,
		"step_info", record.StepInfo,
		"timestamp", record.Timestamp,
	)
	return nil
}
