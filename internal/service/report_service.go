package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/track/internal/clock"
	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/repository"
)

// DefaultReportWindow is how far back a report looks when no window is given
const DefaultReportWindow = 24 * time.Hour

// ReportService provides read-only summaries of the interval log.
//
// Reports take no lock. A report running alongside a stop may miss the
// closure in flight; an open interval is measured up to the current time.
type ReportService interface {
	// Report lists intervals overlapping the window ending now
	Report(ctx context.Context, window time.Duration) (*domain.Report, error)
}

type reportService struct {
	repo  repository.IntervalRepository
	clock clock.Clock
}

// NewReportService creates a new report service
func NewReportService(repo repository.IntervalRepository, clk clock.Clock) ReportService {
	return &reportService{
		repo:  repo,
		clock: clk,
	}
}

func (s *reportService) Report(ctx context.Context, window time.Duration) (*domain.Report, error) {
	if window <= 0 {
		window = DefaultReportWindow
	}

	intervals, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load intervals: %w", err)
	}

	now := time.Unix(s.clock.Now().Unix(), 0)
	return domain.NewReport(intervals, now.Add(-window), now), nil
}
