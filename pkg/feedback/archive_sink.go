package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// S3Archive uploads feedback-record batches to an S3 bucket. Either this
// or GCSArchive (or both) may be configured on an ArchiveSink.
type S3Archive struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3ArchiveConfig configures an S3Archive.
type S3ArchiveConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional custom endpoint (MinIO, LocalStack)
	Prefix   string
}

// NewS3Archive builds an S3-backed archive leg.
func NewS3Archive(ctx context.Context, cfg S3ArchiveConfig) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("feedback: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *S3Archive) upload(ctx context.Context, key string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("feedback: s3 put %s: %w", key, err)
	}
	return nil
}

// gcsLeg is the interface GCSArchive (built only with -tags gcp) satisfies;
// the !gcp build has no concrete implementation, so ArchiveSink's gcs field
// stays nil unless the caller built with the gcp tag and constructed one.
type gcsLeg interface {
	upload(ctx context.Context, key string, data []byte) error
}

// ArchiveSink uploads feedback records as one JSON document per Submit (one
// record) or SubmitBatch (many records) call to every configured cloud leg;
// it does no batching of its own. Either leg is optional;
// a failure on one leg is logged and does not block the other, and never
// blocks request processing (ArchiveSink is meant to sit behind MultiSink's
// buffered channel, not be called synchronously from the request path).
type ArchiveSink struct {
	s3     *S3Archive
	gcs    gcsLeg
	logger *slog.Logger
}

// NewArchiveSink returns an ArchiveSink. Either s3 or gcs may be nil to
// disable that leg; gcs is only non-nil in builds tagged gcp, via
// NewGCSArchive.
func NewArchiveSink(s3 *S3Archive, gcs gcsLeg, logger *slog.Logger) *ArchiveSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveSink{s3: s3, gcs: gcs, logger: logger.With("component", "feedback.archive")}
}

// Submit archives a single record immediately as its own one-record batch.
// Callers that want batching should accumulate records and call
// SubmitBatch directly instead.
func (a *ArchiveSink) Submit(ctx context.Context, record contracts.FeedbackRecord) error {
	return a.SubmitBatch(ctx, []contracts.FeedbackRecord{record})
}

// SubmitBatch uploads records as one JSON array to every configured leg.
func (a *ArchiveSink) SubmitBatch(ctx context.Context, records []contracts.FeedbackRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("feedback: marshal batch: %w", err)
	}
	key := fmt.Sprintf("feedback-%s.json", time.Now().UTC().Format("20060102T150405.000000000Z"))

	if a.s3 != nil {
		if err := a.s3.upload(ctx, key, data); err != nil {
			a.logger.ErrorContext(ctx, "s3 archive leg failed", "error", err)
		}
	}
	if a.gcs != nil {
		if err := a.gcs.upload(ctx, key, data); err != nil {
			a.logger.ErrorContext(ctx, "gcs archive leg failed", "error", err)
		}
	}
	return nil
}
