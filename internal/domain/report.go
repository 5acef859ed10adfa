package domain

import "time"

// ReportRow is one interval as seen through a report window
type ReportRow struct {
	Start    time.Time
	End      time.Time // the current time for open intervals
	Open     bool
	Duration time.Duration // clipped to the report window
}

// Report lists the intervals overlapping a time window
type Report struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Rows        []ReportRow
	Total       time.Duration
}

// NewReport builds a report of all intervals overlapping [windowStart, windowEnd].
// Open intervals are measured up to windowEnd.
func NewReport(intervals []Interval, windowStart, windowEnd time.Time) *Report {
	r := &Report{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Rows:        []ReportRow{},
	}

	for _, iv := range intervals {
		end := iv.EndOr(windowEnd)

		from := laterOf(iv.Start, windowStart)
		to := earlierOf(end, windowEnd)
		if from.After(to) {
			continue
		}

		row := ReportRow{
			Start:    iv.Start,
			End:      end,
			Open:     iv.IsOpen(),
			Duration: to.Sub(from),
		}
		r.Rows = append(r.Rows, row)
		r.Total += row.Duration
	}

	return r
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
