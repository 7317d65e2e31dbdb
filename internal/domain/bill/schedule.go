package bill

import "time"

// NextDueDate computes the earliest occurrence of the bill after the given
// instant, as local midnight in the bill's timezone. Pure, no I/O.
//
// All cycle types resolve "today is the due day" to the following occurrence;
// deciding whether today's occurrence still needs reminders is the
// evaluator's job (see RemindersToFire), not this function's.
func NextDueDate(b *Bill, from time.Time) time.Time {
	loc := b.Location()
	local := from.In(loc)

	switch b.Cycle {
	case CycleWeekly:
		daysUntil := b.DueDay - int(local.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		return time.Date(local.Year(), local.Month(), local.Day()+daysUntil, 0, 0, 0, 0, loc)

	case CycleBiweekly:
		return b.nextIntervalOccurrence(local, 14, loc)

	case CycleMonthly:
		return nextMonthlyOccurrence(local, b.DueDay, loc)

	case CycleQuarterly:
		return nextQuarterlyOccurrence(local, b.DueDay, loc)

	case CycleYearly:
		anchorMonth := b.StartDate.In(loc).Month()
		year := local.Year()
		if local.Month() > anchorMonth || (local.Month() == anchorMonth && local.Day() >= b.DueDay) {
			year++
		}
		return time.Date(year, anchorMonth, clampDay(b.DueDay, year, anchorMonth), 0, 0, 0, 0, loc)

	case CycleCustom:
		if b.CustomIntervalDays.Valid && b.CustomIntervalDays.Int32 >= 1 {
			return b.nextIntervalOccurrence(local, int(b.CustomIntervalDays.Int32), loc)
		}
		// Misconfigured custom bills degrade to monthly semantics rather
		// than stalling.
		return nextMonthlyOccurrence(local, b.DueDay, loc)

	default:
		// Unrecognized cycle: one calendar month ahead, unclamped. The
		// caller logs this as a configuration anomaly.
		return from.AddDate(0, 1, 0)
	}
}

// UpcomingDueDates returns the next count occurrences after from, in order.
// Stateless: each occurrence is found by re-anchoring one day past the
// previous one.
func UpcomingDueDates(b *Bill, from time.Time, count int) []time.Time {
	dates := make([]time.Time, 0, count)
	ref := from
	for i := 0; i < count; i++ {
		next := NextDueDate(b, ref)
		dates = append(dates, next)
		ref = next.AddDate(0, 0, 1)
	}
	return dates
}

// nextIntervalOccurrence finds the first startDate + interval*k occurrence
// whose elapsed-day count is strictly after local's. Covers biweekly (14)
// and custom intervals.
func (b *Bill) nextIntervalOccurrence(local time.Time, intervalDays int, loc *time.Location) time.Time {
	startLocal := b.StartDate.In(loc)
	elapsed := calendarDaysBetween(startLocal, local)
	k := floorDiv(elapsed, intervalDays) + 1
	if k < 0 {
		k = 0
	}
	return time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day()+k*intervalDays, 0, 0, 0, 0, loc)
}

func nextMonthlyOccurrence(local time.Time, dueDay int, loc *time.Location) time.Time {
	year, month := local.Year(), local.Month()
	if local.Day() >= dueDay {
		// time.Date normalizes month 13 into January of year+1.
		normalized := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
		year, month = normalized.Year(), normalized.Month()
	}
	return time.Date(year, month, clampDay(dueDay, year, month), 0, 0, 0, 0, loc)
}

func nextQuarterlyOccurrence(local time.Time, dueDay int, loc *time.Location) time.Time {
	year, month := local.Year(), int(local.Month())
	quarterStart := (month-1)%3 == 0 // Jan, Apr, Jul, Oct
	if !quarterStart || local.Day() >= dueDay {
		month = 3*((month-1)/3) + 4
		if month > 12 {
			month -= 12
			year++
		}
	}
	return time.Date(year, time.Month(month), clampDay(dueDay, year, time.Month(month)), 0, 0, 0, 0, loc)
}

// clampDay pins a configured due day to the target month's length, so day 31
// in April resolves to April 30 and day 31 in February to the 28th or 29th.
func clampDay(dueDay, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if dueDay > last {
		return last
	}
	if dueDay < 1 {
		return 1
	}
	return dueDay
}

// calendarDaysBetween counts whole calendar days from a's local date to b's
// local date. Both dates are re-expressed in UTC so DST transitions cannot
// skew the count.
func calendarDaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
