package outbound

import (
	"context"

	"orderpipe/internal/core/domain"
)

// DeadLetterSink receives events that could not be processed. The
// original payload is forwarded untouched; reason and attempt count
// travel as metadata.
type DeadLetterSink interface {
	Publish(ctx context.Context, payload []byte, reason domain.Reason, attempts int) error
	// Published returns the number of records accepted so far.
	Published() int64
}
