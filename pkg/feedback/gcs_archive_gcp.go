//go:build gcp

package feedback

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSArchive uploads feedback-record batches to a Google Cloud Storage
// bucket, the archive sink's second, independently-configured leg. Only
// available in builds tagged gcp.
type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSArchiveConfig configures a GCSArchive.
type GCSArchiveConfig struct {
	Bucket string
	Prefix string
}

// NewGCSArchive builds a GCS-backed archive leg, using application default
// credentials.
func NewGCSArchive(ctx context.Context, cfg GCSArchiveConfig) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("feedback: create gcs client: %w", err)
	}
	return &GCSArchive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *GCSArchive) upload(ctx context.Context, key string, data []byte) error {
	obj := a.client.Bucket(a.bucket).Object(a.prefix + key)
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("feedback: gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("feedback: gcs close %s: %w", key, err)
	}
	return nil
}
