package main

import (
	"context"
	"log/slog"

	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/feedback"
)

// buildFeedbackSinks assembles the sinks a partition's feedback.MultiSink
// fans out to. LogSink is always on; ArchiveSink's S3 and GCS legs are
// added only when their bucket is configured, so enabling cloud archival
// is a config change, not a rebuild, and a deployment that sets neither
// bucket never touches either cloud SDK's credential chain at startup.
func buildFeedbackSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) []feedback.Sink {
	sinks := []feedback.Sink{feedback.NewLogSink(logger)}
	if cfg.ArchiveS3Bucket == "" && cfg.ArchiveGCSBucket == "" {
		return sinks
	}

	var s3Leg *feedback.S3Archive
	if cfg.ArchiveS3Bucket != "" {
		leg, err := feedback.NewS3Archive(ctx, feedback.S3ArchiveConfig{
			Bucket:   cfg.ArchiveS3Bucket,
			Region:   cfg.ArchiveS3Region,
			Endpoint: cfg.ArchiveS3Endpoint,
			Prefix:   cfg.ArchiveS3Prefix,
		})
		if err != nil {
			logger.Error("feedback: s3 archive leg disabled", "error", err)
		} else {
			s3Leg = leg
		}
	}

	if cfg.ArchiveGCSBucket == "" {
		return append(sinks, feedback.NewArchiveSink(s3Leg, nil, logger))
	}

	gcsLeg, err := feedback.NewGCSArchive(ctx, feedback.GCSArchiveConfig{
		Bucket: cfg.ArchiveGCSBucket,
		Prefix: cfg.ArchiveGCSPrefix,
	})
	if err != nil {
		logger.Error("feedback: gcs archive leg disabled", "error", err)
		return append(sinks, feedback.NewArchiveSink(s3Leg, nil, logger))
	}
	return append(sinks, feedback.NewArchiveSink(s3Leg, gcsLeg, logger))
}
