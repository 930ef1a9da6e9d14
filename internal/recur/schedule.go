// Package recur materializes recurring transactions into dated instances.
//
// Expansion is pure date arithmetic over treasury.Schedule; the Generator
// drives it against the store, one version window at a time. Generation
// is idempotent: instance identity is (recurring id, due date) and the
// store ignores duplicate inserts, so running the generator twice over
// the same horizon changes nothing.
package recur

import (
	"time"

	"tesoreria/internal/treasury"
)

// clampDay returns the given day of month, clamped to the month's length.
// A schedule anchored on day 31 falls on Feb 28 (29 in leap years),
// Apr 30, and so on, without losing the anchor for later months.
func clampDay(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// first returns the schedule's first occurrence on or after start.
func first(s treasury.Schedule, start time.Time) time.Time {
	switch s.Frequency {
	case treasury.Daily, treasury.Weekly:
		return start
	default:
		d := clampDay(start.Year(), start.Month(), s.AnchorDay)
		if d.Before(start) {
			d = clampDay(start.Year(), start.Month()+monthStep(s), s.AnchorDay)
		}
		return d
	}
}

// monthStep returns the month increment for monthly-and-up frequencies.
func monthStep(s treasury.Schedule) time.Month {
	switch s.Frequency {
	case treasury.Quarterly:
		return time.Month(3 * s.Interval)
	case treasury.Yearly:
		return time.Month(12 * s.Interval)
	default:
		return time.Month(s.Interval)
	}
}

// Expand returns the schedule's due dates within [start, until], both
// inclusive, where start is the version's effective date (occurrence
// counting for MaxOccurrences begins there). Dates beyond the schedule's
// own EndDate are excluded.
func Expand(s treasury.Schedule, start, until time.Time) []time.Time {
	if until.Before(start) {
		return nil
	}
	end := until
	if s.EndDate != nil && s.EndDate.Before(end) {
		end = *s.EndDate
	}

	var dates []time.Time
	count := 0

	switch s.Frequency {
	case treasury.Daily, treasury.Weekly:
		step := s.Interval
		if s.Frequency == treasury.Weekly {
			step = 7 * s.Interval
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, step) {
			count++
			if s.MaxOccurrences > 0 && count > s.MaxOccurrences {
				break
			}
			dates = append(dates, d)
		}
	default:
		// Occurrences are computed from the anchor month, never from the
		// previous clamped date: Jan 31 -> Feb 28 -> Mar 31.
		f := first(s, start)
		year, month := f.Year(), f.Month()
		for {
			d := clampDay(year, month, s.AnchorDay)
			if d.After(end) {
				break
			}
			count++
			if s.MaxOccurrences > 0 && count > s.MaxOccurrences {
				break
			}
			if !d.Before(start) {
				dates = append(dates, d)
			}
			month += monthStep(s)
		}
	}
	return dates
}

// Next returns the first due date strictly after t, or the zero time if
// the schedule has ended by then. start is the version's effective date.
func Next(s treasury.Schedule, start, t time.Time) time.Time {
	if t.Before(start) {
		t = start.AddDate(0, 0, -1)
	}
	// One year past t is always enough to find the next monthly-or-finer
	// occurrence; yearly schedules need the interval.
	horizon := t.AddDate(0, 0, 366*max(1, s.Interval))
	if s.Frequency == treasury.Yearly {
		horizon = t.AddDate(s.Interval+1, 0, 0)
	}
	for _, d := range Expand(s, start, horizon) {
		if d.After(t) {
			return d
		}
	}
	return time.Time{}
}
