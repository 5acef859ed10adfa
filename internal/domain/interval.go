package domain

import (
	"errors"
	"fmt"
	"time"
)

// Interval is one tracked span of time. It is open while End is nil.
type Interval struct {
	Start time.Time
	End   *time.Time // nil while the timer is running
}

// NewInterval creates an open interval starting at the given time
func NewInterval(start time.Time) Interval {
	return Interval{Start: start}
}

// IsOpen returns true if the interval has no end time
func (i Interval) IsOpen() bool {
	return i.End == nil
}

// EndOr returns the end time, or now if the interval is still open
func (i Interval) EndOr(now time.Time) time.Time {
	if i.End == nil {
		return now
	}
	return *i.End
}

// Duration returns the length of the interval, measuring open intervals up to now
func (i Interval) Duration(now time.Time) time.Duration {
	d := i.EndOr(now).Sub(i.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Close sets the end time. An end earlier than the start is clamped to the
// start so the log never holds a negative duration. It reports whether the
// end had to be clamped.
func (i *Interval) Close(end time.Time) bool {
	clamped := false
	if end.Before(i.Start) {
		end = i.Start
		clamped = true
	}
	i.End = &end
	return clamped
}

// Validate returns an error if the interval is invalid
func (i Interval) Validate() error {
	if i.Start.Unix() < 0 {
		return errors.New("start time is before the epoch")
	}
	if i.End != nil && i.End.Before(i.Start) {
		return errors.New("end time must not be before start time")
	}
	return nil
}

// Last returns a pointer to the final interval of the log, or nil when empty
func Last(intervals []Interval) *Interval {
	if len(intervals) == 0 {
		return nil
	}
	return &intervals[len(intervals)-1]
}

// ValidateLog checks the ordering invariants of a whole interval log: starts
// never decrease, closed intervals never end before they start, and only the
// final interval may be open.
func ValidateLog(intervals []Interval) error {
	for idx, iv := range intervals {
		if err := iv.Validate(); err != nil {
			return &LogError{Index: idx, Err: err}
		}
		if iv.IsOpen() && idx != len(intervals)-1 {
			return &LogError{Index: idx, Err: errors.New("open interval is not the last record")}
		}
		if idx > 0 && iv.Start.Before(intervals[idx-1].Start) {
			return &LogError{Index: idx, Err: errors.New("start time is earlier than the previous record")}
		}
	}
	return nil
}

// LogError points at the record that broke an invariant
type LogError struct {
	Index int
	Err   error
}

func (e *LogError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}
