package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/lock"
	"github.com/andy/track/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_FreshTracker(t *testing.T) {
	f := newFixture(t)

	started, err := f.tracker.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, open(t0), *started)
	assert.Equal(t, []domain.Interval{open(t0)}, f.load(t))
	assert.True(t, f.tracker.IsRunning())
	assert.Equal(t, domain.TrackerStateRunning, f.tracker.State())
}

func TestStop_AfterStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)

	f.clock.Set(t0 + 120)
	stopped, err := f.tracker.Stop(ctx)
	require.NoError(t, err)

	require.NotNil(t, stopped)
	assert.Equal(t, closed(t0, t0+120), *stopped)
	assert.Equal(t, []domain.Interval{closed(t0, t0+120)}, f.load(t))
	assert.False(t, f.tracker.IsRunning())
	assert.NoFileExists(t, f.lockfile.Path())
}

func TestStart_WhileRunningChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)
	dbBefore, err := os.ReadFile(f.repo.Path())
	require.NoError(t, err)
	lockBefore, err := os.ReadFile(f.lockfile.Path())
	require.NoError(t, err)

	f.clock.Set(t0 + 10)
	_, err = f.tracker.Start(ctx)
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Contains(t, err.Error(), "already running")

	dbAfter, err := os.ReadFile(f.repo.Path())
	require.NoError(t, err)
	lockAfter, err := os.ReadFile(f.lockfile.Path())
	require.NoError(t, err)
	assert.Equal(t, dbBefore, dbAfter)
	assert.Equal(t, lockBefore, lockAfter)
}

func TestStop_WithoutStart(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Stop(context.Background())
	require.ErrorIs(t, err, ErrNotRunning)
	assert.Contains(t, err.Error(), "not running")

	assert.NoFileExists(t, f.repo.Path())
	assert.NoFileExists(t, f.lockfile.Path())
}

func TestTwoIntervals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	steps := []struct {
		at    int64
		start bool
	}{
		{t0, true}, {t0 + 60, false}, {t0 + 100, true}, {t0 + 130, false},
	}
	for _, step := range steps {
		f.clock.Set(step.at)
		var err error
		if step.start {
			_, err = f.tracker.Start(ctx)
		} else {
			_, err = f.tracker.Stop(ctx)
		}
		require.NoError(t, err)
	}

	assert.Equal(t, []domain.Interval{closed(t0, t0+60), closed(t0+100, t0+130)}, f.load(t))
}

func TestLog_AtMostOneOpenIntervalAndItIsLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Alternate start/stop with some redundant calls thrown in
	for i := int64(0); i < 12; i++ {
		f.clock.Set(t0 + i*10)
		switch i % 3 {
		case 0:
			_, _ = f.tracker.Start(ctx)
		case 1:
			_, _ = f.tracker.Start(ctx)
		case 2:
			_, _ = f.tracker.Stop(ctx)
		}

		intervals := f.load(t)
		require.NoError(t, domain.ValidateLog(intervals))
		last := domain.Last(intervals)
		assert.Equal(t, f.tracker.IsRunning(), last != nil && last.IsOpen())
		for _, iv := range intervals {
			assert.False(t, iv.EndOr(iv.Start).Before(iv.Start))
		}
	}
}

func TestStop_ClampsBackwardsClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)

	f.clock.Set(t0 - 300)
	stopped, err := f.tracker.Stop(ctx)
	require.NoError(t, err)

	assert.Equal(t, closed(t0, t0), *stopped)
	assert.Equal(t, []domain.Interval{closed(t0, t0)}, f.load(t))
}

func TestStart_AllowsBackwardsClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Save(ctx, []domain.Interval{closed(t0, t0+600)}))

	f.clock.Set(t0 + 100)
	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, []domain.Interval{closed(t0, t0+600), open(t0 + 100)}, f.load(t))
}

func TestStart_RecoversDanglingOpenInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Log says running but the lockfile is gone
	require.NoError(t, f.repo.Save(ctx, []domain.Interval{closed(t0-500, t0-400), open(t0 - 100)}))

	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, []domain.Interval{
		closed(t0-500, t0-400),
		closed(t0-100, t0),
		open(t0),
	}, f.load(t))
}

func TestStop_LockfileWithoutOpenInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Save(ctx, []domain.Interval{closed(t0-60, t0-30)}))
	require.NoError(t, os.WriteFile(f.lockfile.Path(), nil, 0644))

	stopped, err := f.tracker.Stop(ctx)
	require.NoError(t, err)

	assert.Nil(t, stopped)
	assert.Equal(t, []domain.Interval{closed(t0-60, t0-30)}, f.load(t), "no interval is invented")
	assert.False(t, f.tracker.IsRunning())
}

func TestStop_LockfileWithEmptyLog(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.lockfile.Path(), nil, 0644))

	stopped, err := f.tracker.Stop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stopped)
	assert.False(t, f.tracker.IsRunning())
}

func TestStop_CrashedStartIsStillRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A SIGKILLed process leaves the lockfile on disk but holds no lock
	require.NoError(t, f.repo.Save(ctx, []domain.Interval{open(t0)}))
	require.NoError(t, os.WriteFile(f.lockfile.Path(), []byte("99999\n"), 0644))

	_, err := f.tracker.Start(ctx)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	f.clock.Set(t0 + 45)
	stopped, err := f.tracker.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, closed(t0, t0+45), *stopped)
}

func TestStartStop_LockContention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)

	// Another mutator is mid-flight
	holder, err := lock.New(f.lockfile.Path()).Acquire(lock.OpenExisting)
	require.NoError(t, err)

	_, err = f.tracker.Stop(ctx)
	require.ErrorIs(t, err, ErrLockAcquisitionFailed)
	assert.ErrorIs(t, err, lock.ErrBusy)
	assert.Equal(t, []domain.Interval{open(t0)}, f.load(t))

	require.NoError(t, holder.Release())

	_, err = f.tracker.Stop(ctx)
	require.NoError(t, err)
}

func TestStart_SaveFailureRollsBackLockfile(t *testing.T) {
	f := newFixture(t)
	repo := &mockIntervalRepo{IntervalRepository: f.repo, saveErr: errDiskFull}
	tracker := NewTrackerService(f.lockfile, repo, f.clock, nil)

	_, err := tracker.Start(context.Background())
	require.ErrorIs(t, err, errDiskFull)

	assert.False(t, tracker.IsRunning())
	assert.NoFileExists(t, f.lockfile.Path())
}

func TestStart_CorruptDatabaseRollsBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.repo.Path(), []byte("[[1700000000"), 0644))

	_, err := f.tracker.Start(context.Background())
	require.ErrorIs(t, err, repository.ErrDecode)
	assert.False(t, f.tracker.IsRunning())
}

func TestStart_EndBeforeStartIsCorrupt(t *testing.T) {
	f := newFixture(t)
	const db = "[[1700000100,1700000000,false]]"
	require.NoError(t, os.WriteFile(f.repo.Path(), []byte(db), 0644))

	_, err := f.tracker.Start(context.Background())
	require.ErrorIs(t, err, repository.ErrDecode)
	assert.False(t, f.tracker.IsRunning())

	data, err := os.ReadFile(f.repo.Path())
	require.NoError(t, err)
	assert.Equal(t, db, string(data))

	_, err = f.reports.Report(context.Background(), 0)
	assert.ErrorIs(t, err, repository.ErrDecode)
}

func TestStop_LoadFailureKeepsRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tracker.Start(ctx)
	require.NoError(t, err)

	repo := &mockIntervalRepo{IntervalRepository: f.repo, loadErr: errDiskFull}
	tracker := NewTrackerService(f.lockfile, repo, f.clock, nil)

	_, err = tracker.Stop(ctx)
	require.ErrorIs(t, err, errDiskFull)
	assert.True(t, tracker.IsRunning())
	assert.Zero(t, repo.saves)

	// and the lock was released, so a retry works
	_, err = f.tracker.Stop(ctx)
	require.NoError(t, err)
}

func TestStop_CleanupFailureKeepsSavedInterval(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	f := newFixture(t)
	ctx := context.Background()

	lockDir := filepath.Join(t.TempDir(), "locks")
	require.NoError(t, os.Mkdir(lockDir, 0755))
	lockfile := lock.New(filepath.Join(lockDir, "lockfile"))
	tracker := NewTrackerService(lockfile, f.repo, f.clock, nil)

	_, err := tracker.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(lockDir, 0555))
	t.Cleanup(func() { _ = os.Chmod(lockDir, 0755) })

	f.clock.Set(t0 + 30)
	stopped, err := tracker.Stop(ctx)
	require.ErrorIs(t, err, ErrLockfileCleanupFailed)
	require.NotNil(t, stopped)

	assert.Equal(t, []domain.Interval{closed(t0, t0+30)}, f.load(t))
	assert.True(t, tracker.IsRunning(), "stale lockfile is left for the user")

	_, err = tracker.Start(ctx)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.tracker.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TrackerStateIdle, st.State)
	assert.Nil(t, st.Active)
	assert.False(t, st.Inconsistent)

	_, err = f.tracker.Start(ctx)
	require.NoError(t, err)
	f.clock.Set(t0 + 90)

	st, err = f.tracker.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TrackerStateRunning, st.State)
	require.NotNil(t, st.Active)
	assert.Equal(t, at(t0), st.Active.Start)
	assert.Equal(t, int64(90), int64(st.Elapsed.Seconds()))
	assert.Equal(t, os.Getpid(), st.HolderPID)
	assert.False(t, st.Inconsistent)

	require.NoError(t, os.Remove(f.lockfile.Path()))
	st, err = f.tracker.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Inconsistent)
}

func TestGetActiveInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active, err := f.tracker.GetActiveInterval(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = f.tracker.Start(ctx)
	require.NoError(t, err)

	active, err = f.tracker.GetActiveInterval(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.IsOpen())
}

func TestAcquireError_StaleLockfile(t *testing.T) {
	s := &trackerService{}
	stale := &lock.LockError{Path: "lockfile", Err: lock.ErrStale}

	// start created the file, then a racing stop unlinked it
	err := s.acquireError(lock.CreateNew, stale)
	assert.ErrorIs(t, err, ErrLockAcquisitionFailed)
	assert.ErrorIs(t, err, lock.ErrStale)

	// stop found the lockfile already removed by another stop
	assert.ErrorIs(t, s.acquireError(lock.OpenExisting, stale), ErrNotRunning)
}
