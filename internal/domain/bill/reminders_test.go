package bill

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

// monthlyKolkataBill mirrors the canonical scenario: monthly bill due on the
// 15th, offsets 3/1/0, Asia/Kolkata.
func monthlyKolkataBill(t *testing.T) *Bill {
	t.Helper()
	loc := kolkata(t)
	return &Bill{
		Name:            "Internet",
		Cycle:           CycleMonthly,
		DueDay:          15,
		StartDate:       time.Date(2026, time.January, 1, 0, 0, 0, 0, loc),
		Timezone:        "Asia/Kolkata",
		Status:          StatusActive,
		ReminderOffsets: []int{3, 1, 0},
		RemindersSent:   SentLedger{},
	}
}

func offsets(due []DueReminder) []int {
	out := make([]int, 0, len(due))
	for _, d := range due {
		out = append(out, d.Offset)
	}
	return out
}

func TestRemindersToFire_ThreeDaysBefore(t *testing.T) {
	b := monthlyKolkataBill(t)
	now := time.Date(2026, time.January, 12, 9, 0, 0, 0, kolkata(t))

	due := RemindersToFire(b, now)
	require.Len(t, due, 1)
	assert.Equal(t, 3, due[0].Offset)
	assert.Equal(t, "2026-01-15", DateKey(due[0].DueDate, kolkata(t)))
}

func TestRemindersToFire_OnDueDateAfterEarlierOffsetsSent(t *testing.T) {
	b := monthlyKolkataBill(t)
	b.RemindersSent = SentLedger{"2026-01-15": {3, 1}}
	now := time.Date(2026, time.January, 15, 8, 0, 0, 0, kolkata(t))

	due := RemindersToFire(b, now)
	require.Len(t, due, 1)
	assert.Equal(t, 0, due[0].Offset)
	assert.Equal(t, "2026-01-15", DateKey(due[0].DueDate, kolkata(t)))
}

func TestRemindersToFire_AllOffsetsAfterOutage(t *testing.T) {
	// Scheduler was down from the 12th through the 15th: every offset is
	// still inside its grace window and none was marked sent.
	b := monthlyKolkataBill(t)
	now := time.Date(2026, time.January, 15, 8, 0, 0, 0, kolkata(t))

	assert.ElementsMatch(t, []int{3, 1, 0}, offsets(RemindersToFire(b, now)))
}

func TestRemindersToFire_IsIdempotentForSameInstant(t *testing.T) {
	b := monthlyKolkataBill(t)
	now := time.Date(2026, time.January, 12, 9, 0, 0, 0, kolkata(t))

	first := RemindersToFire(b, now)
	second := RemindersToFire(b, now)
	assert.Equal(t, first, second)

	// Once the caller marks the results sent, re-evaluation is empty.
	for _, d := range first {
		b.RemindersSent.Mark(DateKey(d.DueDate, kolkata(t)), d.Offset)
	}
	assert.Empty(t, RemindersToFire(b, now))
}

func TestRemindersToFire_GraceWindow(t *testing.T) {
	loc := kolkata(t)

	t.Run("missed trigger day still fires before due date", func(t *testing.T) {
		b := monthlyKolkataBill(t)
		b.ReminderOffsets = []int{3}
		// Two days past the trigger day (the 12th), still on/before the due
		// date.
		now := time.Date(2026, time.January, 14, 9, 0, 0, 0, loc)
		assert.Equal(t, []int{3}, offsets(RemindersToFire(b, now)))
	})

	t.Run("window closes the day after the due date", func(t *testing.T) {
		b := monthlyKolkataBill(t)
		now := time.Date(2026, time.January, 16, 9, 0, 0, 0, loc)
		assert.Empty(t, RemindersToFire(b, now))
	})
}

func TestRemindersToFire_MarkedPaidSuppressesCycle(t *testing.T) {
	b := monthlyKolkataBill(t)
	now := time.Date(2026, time.January, 12, 9, 0, 0, 0, kolkata(t))

	b.MarkedPaidUntil = sql.NullTime{Time: now.AddDate(0, 0, 5), Valid: true}
	assert.Empty(t, RemindersToFire(b, now))

	// A paid-until instant already in the past suppresses nothing.
	b.MarkedPaidUntil = sql.NullTime{Time: now.AddDate(0, 0, -5), Valid: true}
	assert.NotEmpty(t, RemindersToFire(b, now))
}

func TestRemindersToFire_PausedAndDeletedBillsAreSilent(t *testing.T) {
	now := time.Date(2026, time.January, 15, 8, 0, 0, 0, kolkata(t))
	for _, status := range []Status{StatusPaused, StatusDeleted} {
		b := monthlyKolkataBill(t)
		b.Status = status
		assert.Empty(t, RemindersToFire(b, now), "status %s", status)
	}
}

func TestRemindersToFire_EndedBillIsSilent(t *testing.T) {
	b := monthlyKolkataBill(t)
	now := time.Date(2026, time.January, 12, 9, 0, 0, 0, kolkata(t))
	b.EndDate = sql.NullTime{Time: now.AddDate(0, 0, -1), Valid: true}
	assert.Empty(t, RemindersToFire(b, now))
}

func TestRemindersToFire_WeeklyDueToday(t *testing.T) {
	// 2026-01-13 is a Tuesday.
	b := &Bill{
		Cycle:           CycleWeekly,
		DueDay:          2, // Tuesday
		StartDate:       utcDate(2026, time.January, 1),
		Timezone:        "UTC",
		Status:          StatusActive,
		ReminderOffsets: []int{0},
		RemindersSent:   SentLedger{},
	}
	now := time.Date(2026, time.January, 13, 10, 0, 0, 0, time.UTC)

	due := RemindersToFire(b, now)
	require.Len(t, due, 1)
	assert.Equal(t, "2026-01-13", DateKey(due[0].DueDate, time.UTC))
}

func TestPruneOldReminders(t *testing.T) {
	b := monthlyKolkataBill(t)
	now := time.Date(2026, time.April, 15, 9, 0, 0, 0, kolkata(t))
	// Retention cutoff is 2026-01-15: strictly older keys go, the cutoff
	// date itself stays.
	b.RemindersSent = SentLedger{
		"2026-01-14": {0},
		"2026-01-15": {3, 0},
		"2026-04-15": {3},
	}

	removed := PruneOldReminders(b, now)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, b.RemindersSent, "2026-01-14")
	assert.Contains(t, b.RemindersSent, "2026-01-15")
	assert.Contains(t, b.RemindersSent, "2026-04-15")

	assert.Equal(t, 0, PruneOldReminders(b, now))
}
