package notification

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what class of event a notification records.
type Kind string

const (
	// KindBillReminder is an upcoming- or due-today reminder for a
	// recurring bill.
	KindBillReminder Kind = "BILL_REMINDER"
)

// Record is durable evidence that one reminder event was delivered to a
// user. Exactly one record exists per idempotency key; the store enforces
// this with a unique index, which is the race-safety backstop for
// concurrent passes.
type Record struct {
	ID     uuid.UUID
	UserID uuid.UUID
	BillID uuid.UUID

	Kind       Kind
	DueDateKey string // calendar date string, "2006-01-02"
	OffsetDays int

	IdempotencyKey string

	Title   string
	Message string

	EmailSent bool

	ReadAt      sql.NullTime
	DismissedAt sql.NullTime
	CreatedAt   time.Time
}

// IdempotencyKey derives the deterministic key guaranteeing at-most-one
// record per (kind, bill, due date, offset). Any process computing the key
// for the same logical reminder event arrives at the same string.
func IdempotencyKey(kind Kind, billID uuid.UUID, dueDateKey string, offsetDays int) string {
	return fmt.Sprintf("%s:%s:%s:%d", kind, billID, dueDateKey, offsetDays)
}
