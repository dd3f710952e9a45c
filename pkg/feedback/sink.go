// Package feedback implements the feedback bus (C11): an append-only sink
// that every pipeline stage submits a record to, with no ordering
// guarantee across stages beyond per-request submission order.
package feedback

import (
	"context"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// Sink accepts feedback records. Implementations must not block the
// submitting stage for longer than it takes to hand the record off.
type Sink interface {
	Submit(ctx context.Context, record contracts.FeedbackRecord) error
}
