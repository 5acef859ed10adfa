package tui

import (
	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/service"
)

// tickMsg is sent every second to advance the elapsed time
type tickMsg struct{}

// fileChangedMsg is sent when the lockfile or database changes on disk
type fileChangedMsg struct{}

// snapshotMsg carries freshly loaded tracker state
type snapshotMsg struct {
	status *service.Status
	report *domain.Report
	err    error
}

// toggledMsg reports the outcome of a start or stop
type toggledMsg struct {
	started  bool
	interval *domain.Interval
	err      error
}
