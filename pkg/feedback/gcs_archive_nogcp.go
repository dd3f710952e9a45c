//go:build !gcp

package feedback

import (
	"context"
	"fmt"
)

// GCSArchiveConfig configures a GCSArchive. Declared in both build variants
// so callers can reference the type regardless of tags; NewGCSArchive
// refuses to construct one without the gcp tag.
type GCSArchiveConfig struct {
	Bucket string
	Prefix string
}

// NewGCSArchive reports that GCS archiving is unavailable in this build.
func NewGCSArchive(ctx context.Context, cfg GCSArchiveConfig) (gcsLeg, error) {
	return nil, fmt.Errorf("feedback: GCS archiving is not enabled in this build (use -tags gcp)")
}
