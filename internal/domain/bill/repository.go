package bill

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the bill-store operations the reminder pass depends on.
type Repository interface {
	// ListActive returns every bill with status=active, each carrying the
	// owner's denormalized contact info.
	ListActive(ctx context.Context) ([]*Bill, error)
	// GetByID fetches a single bill regardless of status, except soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// Save persists the bill's full mutable state, including the sent ledger
	// and markedPaidUntil.
	Save(ctx context.Context, b *Bill) error
}
