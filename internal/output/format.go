package output

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// Timestamp layout used for interval boundaries in local time
const timeLayout = "2006-01-02 15:04:05"

// FormatDuration formats a duration as "1h 2m 3s", dropping leading zero units
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatTime formats a timestamp in the host's local time zone
func FormatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ColorEnabled reports whether styled output should be used for f
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsTerminal(f)
}
