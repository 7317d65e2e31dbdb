package bill

import "time"

// LedgerRetentionDays is how long delivered-reminder keys stay in the sent
// ledger before pruning. Far beyond the 30-day maximum offset, so pruning can
// never touch a key whose reminder window is still open.
const LedgerRetentionDays = 90

// DueReminder is one reminder the evaluator decided must fire now.
type DueReminder struct {
	Offset  int
	DueDate time.Time
}

// RemindersToFire decides which reminder offsets must fire for the bill at
// the given instant. Pure: reads the bill snapshot, performs no I/O. The
// caller is responsible for marking fired offsets in the sent ledger and
// persisting the bill; that ledger write is what makes re-evaluation a no-op.
//
// The due-date lookup is anchored one calendar day before now: NextDueDate
// always rolls past an occurrence due today, but today's occurrence is
// exactly the one whose on-the-day (offset 0) reminder must still fire.
//
// Each offset fires iff today falls inside the inclusive window
// [dueDate-offset, dueDate] and the (dueDate, offset) pair is not in the
// ledger. The window, rather than an exact-day match, is what recovers
// reminders missed while the scheduler was down; the ledger check keeps the
// recovery from ever double-firing.
func RemindersToFire(b *Bill, now time.Time) []DueReminder {
	if b.Status != StatusActive {
		return nil
	}
	if b.MarkedPaidUntil.Valid && b.MarkedPaidUntil.Time.After(now) {
		return nil
	}
	if b.EndDate.Valid && b.EndDate.Time.Before(now) {
		return nil
	}

	loc := b.Location()
	dueDate := NextDueDate(b, now.AddDate(0, 0, -1))
	today := DateKey(now, loc)
	dueDateKey := DateKey(dueDate, loc)

	var due []DueReminder
	for _, offset := range b.ReminderOffsets {
		if offset < 0 {
			continue
		}
		reminderKey := DateKey(dueDate.AddDate(0, 0, -offset), loc)
		if reminderKey <= today && today <= dueDateKey && !b.RemindersSent.Has(dueDateKey, offset) {
			due = append(due, DueReminder{Offset: offset, DueDate: dueDate})
		}
	}
	return due
}

// PruneOldReminders drops sent-ledger keys older than LedgerRetentionDays
// and returns how many were removed. The caller persists the bill only when
// the count is non-zero.
func PruneOldReminders(b *Bill, now time.Time) int {
	if b.RemindersSent == nil {
		return 0
	}
	cutoff := now.In(b.Location()).AddDate(0, 0, -LedgerRetentionDays)
	return b.RemindersSent.Prune(cutoff)
}
