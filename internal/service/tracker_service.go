package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/andy/track/internal/clock"
	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/lock"
	"github.com/andy/track/internal/repository"
)

var (
	ErrAlreadyRunning        = errors.New("timer is already running")
	ErrNotRunning            = errors.New("timer is not running")
	ErrLockAcquisitionFailed = errors.New("another track process is modifying the database")
	ErrLockfileCleanupFailed = errors.New("interval saved but the lockfile could not be removed; delete it manually")
)

// Status is a read-only snapshot of the tracker
type Status struct {
	State   domain.TrackerState
	Active  *domain.Interval // nil when no interval is open
	Elapsed time.Duration
	Now     time.Time

	// HolderPID is the PID recorded in the lockfile, 0 if unknown
	HolderPID int

	// Inconsistent is set when the lockfile and the log disagree about
	// whether an interval is open, usually after a crash
	Inconsistent bool
}

// TrackerService manages the idle/running state machine.
//
// Idle means no lockfile; running means the lockfile exists. Start and Stop
// hold an exclusive lock on the lockfile for their whole read-modify-write
// of the interval log.
type TrackerService interface {
	// IsRunning reports whether the lockfile exists. The answer can be
	// stale by the time the caller acts on it.
	IsRunning() bool

	// State returns idle or running
	State() domain.TrackerState

	// Start opens a new interval (only from Idle state)
	Start(ctx context.Context) (*domain.Interval, error)

	// Stop closes the open interval (only from Running state). It returns a
	// nil interval when the lockfile existed without an open record.
	Stop(ctx context.Context) (*domain.Interval, error)

	// GetActiveInterval returns the open interval, or nil if none
	GetActiveInterval(ctx context.Context) (*domain.Interval, error)

	// Status returns a snapshot without taking the lock
	Status(ctx context.Context) (*Status, error)
}

type trackerService struct {
	lockfile *lock.Lockfile
	repo     repository.IntervalRepository
	clock    clock.Clock
	logger   *slog.Logger
}

// NewTrackerService creates a new tracker service
func NewTrackerService(
	lockfile *lock.Lockfile,
	repo repository.IntervalRepository,
	clk clock.Clock,
	logger *slog.Logger,
) TrackerService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &trackerService{
		lockfile: lockfile,
		repo:     repo,
		clock:    clk,
		logger:   logger,
	}
}

// now reads the clock at whole-second precision
func (s *trackerService) now() time.Time {
	return time.Unix(s.clock.Now().Unix(), 0)
}

func (s *trackerService) IsRunning() bool {
	return s.lockfile.Exists()
}

func (s *trackerService) State() domain.TrackerState {
	if s.IsRunning() {
		return domain.TrackerStateRunning
	}
	return domain.TrackerStateIdle
}

func (s *trackerService) Start(ctx context.Context) (*domain.Interval, error) {
	if s.IsRunning() {
		return nil, ErrAlreadyRunning
	}

	handle, err := s.lockfile.Acquire(lock.CreateNew)
	if err != nil {
		return nil, s.acquireError(lock.CreateNew, err)
	}
	s.logger.Debug("lock acquired", "lockfile", handle.Path())

	started, err := s.appendInterval(ctx)
	if err != nil {
		// Roll back to idle
		if rmErr := handle.ReleaseAndRemove(); rmErr != nil {
			s.logger.Error("failed to roll back lockfile", "lockfile", handle.Path(), "error", rmErr)
		}
		return nil, err
	}

	// The lockfile stays behind as the running marker
	if err := handle.Release(); err != nil {
		s.logger.Warn("failed to release lock", "lockfile", handle.Path(), "error", err)
	}

	return started, nil
}

func (s *trackerService) appendInterval(ctx context.Context) (*domain.Interval, error) {
	now := s.now()

	intervals, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load intervals: %w", err)
	}

	if last := domain.Last(intervals); last != nil {
		if last.IsOpen() {
			// A previous run died between saving and creating the lockfile,
			// or the lockfile was deleted by hand
			s.logger.Warn("closing interval left open without a lockfile",
				"start", last.Start.Unix(), "end", now.Unix())
			last.Close(now)
		}

		if latest := last.EndOr(now); now.Before(latest) {
			s.logger.Warn("clock is earlier than the previous interval",
				"now", now.Unix(), "previous_end", latest.Unix())
		}
	}

	intervals = append(intervals, domain.NewInterval(now))
	if err := s.repo.Save(ctx, intervals); err != nil {
		return nil, fmt.Errorf("failed to save intervals: %w", err)
	}

	s.logger.Info("interval started", "start", now.Unix(), "count", len(intervals))
	started := intervals[len(intervals)-1]
	return &started, nil
}

func (s *trackerService) Stop(ctx context.Context) (*domain.Interval, error) {
	if !s.IsRunning() {
		return nil, ErrNotRunning
	}

	handle, err := s.lockfile.Acquire(lock.OpenExisting)
	if err != nil {
		return nil, s.acquireError(lock.OpenExisting, err)
	}
	s.logger.Debug("lock acquired", "lockfile", handle.Path())

	stopped, err := s.closeInterval(ctx)
	if err != nil {
		// Nothing was written; stay running
		if relErr := handle.Release(); relErr != nil {
			s.logger.Warn("failed to release lock", "lockfile", handle.Path(), "error", relErr)
		}
		return nil, err
	}

	if err := handle.ReleaseAndRemove(); err != nil {
		return stopped, fmt.Errorf("%w: %w", ErrLockfileCleanupFailed, err)
	}

	return stopped, nil
}

func (s *trackerService) closeInterval(ctx context.Context) (*domain.Interval, error) {
	now := s.now()

	intervals, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load intervals: %w", err)
	}

	last := domain.Last(intervals)
	if last == nil || !last.IsOpen() {
		s.logger.Warn("lockfile exists but no interval is open; removing lockfile",
			"lockfile", s.lockfile.Path())
		return nil, nil
	}

	if clamped := last.Close(now); clamped {
		s.logger.Warn("clock is earlier than the interval start; recording zero duration",
			"now", now.Unix(), "start", last.Start.Unix())
	}

	if err := s.repo.Save(ctx, intervals); err != nil {
		return nil, fmt.Errorf("failed to save intervals: %w", err)
	}

	s.logger.Info("interval stopped", "start", last.Start.Unix(), "end", last.End.Unix())
	stopped := *last
	return &stopped, nil
}

// acquireError translates lock failures into tracker errors. A stale
// lockfile means a racing stop unlinked it: the tracker is idle for Stop,
// while Start lost the race for the file it just created.
func (s *trackerService) acquireError(mode lock.Mode, err error) error {
	switch {
	case errors.Is(err, lock.ErrExists):
		return ErrAlreadyRunning
	case errors.Is(err, lock.ErrStale) && mode == lock.CreateNew:
		return fmt.Errorf("%w: %w", ErrLockAcquisitionFailed, err)
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, lock.ErrStale):
		return ErrNotRunning
	case errors.Is(err, lock.ErrBusy):
		return fmt.Errorf("%w: %w", ErrLockAcquisitionFailed, err)
	default:
		return fmt.Errorf("failed to acquire lockfile: %w", err)
	}
}

func (s *trackerService) GetActiveInterval(ctx context.Context) (*domain.Interval, error) {
	intervals, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load intervals: %w", err)
	}

	last := domain.Last(intervals)
	if last == nil || !last.IsOpen() {
		return nil, nil
	}
	active := *last
	return &active, nil
}

func (s *trackerService) Status(ctx context.Context) (*Status, error) {
	running := s.IsRunning()

	active, err := s.GetActiveInterval(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		State:        domain.TrackerStateIdle,
		Active:       active,
		Now:          s.now(),
		Inconsistent: running != (active != nil),
	}
	if running {
		st.State = domain.TrackerStateRunning
		if pid, err := s.lockfile.Holder(); err == nil {
			st.HolderPID = pid
		}
	}
	if active != nil {
		st.Elapsed = active.Duration(st.Now)
	}

	return st, nil
}
