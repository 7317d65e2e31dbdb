package bill

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Cycle classifies how often a recurring bill comes due.
type Cycle string

const (
	CycleWeekly    Cycle = "weekly"
	CycleBiweekly  Cycle = "biweekly"
	CycleMonthly   Cycle = "monthly"
	CycleQuarterly Cycle = "quarterly"
	CycleYearly    Cycle = "yearly"
	CycleCustom    Cycle = "custom"
)

// Status is the lifecycle state of a bill. Deleted bills are soft-deleted
// and excluded from every query and pass.
type Status string

const (
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusDeleted Status = "deleted"
)

// Bill is a user's periodic payment obligation together with its reminder
// configuration and runtime state. Owner contact fields (Email,
// TelegramChatID) are denormalized onto the bill by the store query so a
// reminder pass never needs a second lookup.
type Bill struct {
	ID     uuid.UUID
	UserID uuid.UUID

	Name   string
	Amount float64

	Cycle              Cycle
	DueDay             int // 1-31 day-of-month, or 0-6 day-of-week for weekly
	CustomIntervalDays sql.NullInt32
	StartDate          time.Time
	EndDate            sql.NullTime
	Timezone           string // IANA zone name, e.g. "Asia/Kolkata"

	ReminderOffsets []int // days before due date, 0 = on the due date

	Status          Status
	RemindersSent   SentLedger
	MarkedPaidUntil sql.NullTime

	UserEmail      string
	TelegramChatID sql.NullInt64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the bill's IANA timezone. An unknown zone name is a
// configuration anomaly, not a fault: the bill keeps working in UTC.
func (b *Bill) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// DateKey renders an instant as the calendar date string ("2006-01-02")
// of the given location. These keys order lexicographically by date, which
// the evaluator's grace-window comparison relies on.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
