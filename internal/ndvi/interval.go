// Package ndvi implements the temporal compositing pipeline: date-range
// bucketing, per-interval acquisition selection, per-pixel index computation
// and the gap-tolerant series assembly.
package ndvi

import "time"

// Cadence selects the interval length of the time series.
type Cadence string

const (
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

const (
	// MaxRangeDays caps end-start of a request.
	MaxRangeDays = 365
	// MaxIntervals caps how many buckets one run may produce.
	MaxIntervals = 50
)

// Interval is one scheduling bucket. Both dates are inclusive calendar days.
type Interval struct {
	Start time.Time
	End   time.Time
}

// GenerateIntervals splits [start, end] into ordered, non-overlapping buckets
// at the requested cadence. Weekly buckets are fixed 7-day windows and the
// last window may extend past end; monthly buckets run to the calendar month
// end clamped at the overall end date. Pure function, no I/O.
func GenerateIntervals(start, end time.Time, cadence Cadence) ([]Interval, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Sub(start) > MaxRangeDays*24*time.Hour {
		return nil, ErrRangeTooLong
	}

	var intervals []Interval
	switch cadence {
	case CadenceWeekly:
		for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 7) {
			intervals = append(intervals, Interval{Start: cur, End: cur.AddDate(0, 0, 6)})
		}
	case CadenceMonthly:
		for cur := start; !cur.After(end); {
			monthEnd := endOfMonth(cur)
			if monthEnd.After(end) {
				monthEnd = end
			}
			intervals = append(intervals, Interval{Start: cur, End: monthEnd})
			cur = monthEnd.AddDate(0, 0, 1)
		}
	default:
		return nil, ErrUnsupportedCadence
	}

	if len(intervals) > MaxIntervals {
		return nil, ErrTooManyIntervals
	}
	return intervals, nil
}

// endOfMonth finds the last day of cur's month: jump to day 28, add 4 days to
// land in the next month regardless of month length, then step back by the
// resulting day-of-month.
func endOfMonth(cur time.Time) time.Time {
	nextMonth := time.Date(cur.Year(), cur.Month(), 28, 0, 0, 0, 0, cur.Location()).AddDate(0, 0, 4)
	return nextMonth.AddDate(0, 0, -nextMonth.Day())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
