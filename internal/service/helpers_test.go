package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/track/internal/clock"
	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/lock"
	"github.com/andy/track/internal/repository"
)

const t0 = 1_700_000_000

type fixture struct {
	clock    *clock.Fake
	lockfile *lock.Lockfile
	repo     *repository.FileRepo
	tracker  TrackerService
	reports  ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	f := &fixture{
		clock:    clock.NewFake(t0),
		lockfile: lock.New(filepath.Join(dir, "lockfile")),
		repo:     repository.NewFileRepo(filepath.Join(dir, "db.json"), nil),
	}
	f.tracker = NewTrackerService(f.lockfile, f.repo, f.clock, nil)
	f.reports = NewReportService(f.repo, f.clock)
	return f
}

func (f *fixture) load(t *testing.T) []domain.Interval {
	t.Helper()
	intervals, err := f.repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return intervals
}

func at(secs int64) time.Time {
	return time.Unix(secs, 0)
}

func open(start int64) domain.Interval {
	return domain.NewInterval(at(start))
}

func closed(start, end int64) domain.Interval {
	e := at(end)
	return domain.Interval{Start: at(start), End: &e}
}

// mockIntervalRepo wraps a real repository and fails on demand
type mockIntervalRepo struct {
	repository.IntervalRepository
	loadErr error
	saveErr error
	saves   int
}

func (m *mockIntervalRepo) Load(ctx context.Context) ([]domain.Interval, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.IntervalRepository.Load(ctx)
}

func (m *mockIntervalRepo) Save(ctx context.Context, intervals []domain.Interval) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	return m.IntervalRepository.Save(ctx, intervals)
}

var errDiskFull = errors.New("no space left on device")
