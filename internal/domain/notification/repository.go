package notification

import (
	"context"
	"time"
)

// Repository is the notification sink. CreateIfAbsent is the single
// atomicity primitive the reminder pass relies on.
type Repository interface {
	// CreateIfAbsent persists the record unless one with the same
	// idempotency key already exists. It returns the stored record and
	// whether this call created it; a collision is a normal outcome, never
	// an error.
	CreateIfAbsent(ctx context.Context, rec *Record) (*Record, bool, error)
	// MarkEmailSent flags the record after a successful email dispatch.
	MarkEmailSent(ctx context.Context, idempotencyKey string) error
	// DeleteDismissedBefore removes dismissed records older than the cutoff
	// and returns how many were deleted. Run by the maintenance pass.
	DeleteDismissedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
