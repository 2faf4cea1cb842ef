package services

import (
	"time"

	"coinkeep/internal/models"
)

// dateOnly truncates a timestamp to UTC midnight. All schedule and balance
// math works on calendar days rather than instants.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Occurrence is a single projected hit of a planned transaction.
type Occurrence struct {
	Date   time.Time
	Amount int64
}

// Occurrences expands a planned transaction's schedule into the concrete
// dates falling inside [from, to]. One-off plans yield at most one
// occurrence. Continuous recurrences ignore the plan's end date and run for
// as long as the window does; terminating ones stop at the earlier of the
// window end and the plan's end date.
func Occurrences(p models.PlannedTransaction, from, to time.Time) []Occurrence {
	from = dateOnly(from)
	to = dateOnly(to)
	start := dateOnly(p.StartDate)

	if p.Recurrence == models.RecurrenceNone {
		if start.Before(from) || start.After(to) {
			return nil
		}
		return []Occurrence{{Date: start, Amount: p.Amount}}
	}
	// An unknown recurrence would never advance the stepping loop below.
	if !p.Recurrence.IsValid() {
		return nil
	}

	limit := to
	if !p.Recurrence.IsContinuous() && p.EndDate != nil {
		if end := dateOnly(*p.EndDate); end.Before(limit) {
			limit = end
		}
	}

	every := p.Every
	if every < 1 {
		every = 1
	}

	var out []Occurrence
	for i := 0; ; i++ {
		d := nthOccurrence(start, p.Recurrence, every*i)
		if d.After(limit) {
			break
		}
		if !d.Before(from) {
			out = append(out, Occurrence{Date: d, Amount: p.Amount})
		}
	}
	return out
}

// nthOccurrence returns the schedule date `units` steps after start. Monthly
// and yearly steps clamp to month end, so a plan anchored on the 31st lands
// on Feb 28/29 rather than spilling into March.
func nthOccurrence(start time.Time, recurrence models.RecurrenceType, units int) time.Time {
	switch recurrence {
	case models.RecurrenceDaily:
		return start.AddDate(0, 0, units)
	case models.RecurrenceWeekly, models.RecurrenceWeeklyContinuous:
		return start.AddDate(0, 0, 7*units)
	case models.RecurrenceMonthly, models.RecurrenceMonthlyContinuous:
		return addMonthsClamped(start, units)
	case models.RecurrenceYearly:
		return addMonthsClamped(start, 12*units)
	default:
		return start
	}
}

// addMonthsClamped adds months keeping the day of month, clamped to the
// target month's last day. time.AddDate alone normalizes Jan 31 + 1 month to
// Mar 2/3, which is never what a billing schedule means.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}
