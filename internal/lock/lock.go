// Package lock implements the tracker's lockfile.
//
// The lockfile plays two roles. Its existence on disk marks an open
// interval and survives process death. An exclusive, non-blocking flock on
// it marks a mutation in progress; the kernel drops that lock when the
// holder exits, so a lockfile that exists but is not locked belongs to a
// timer that is still open with nobody touching it.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrBusy indicates another process holds the lock
	ErrBusy = errors.New("lockfile is locked by another process")

	// ErrExists indicates the lockfile was already present when creating it
	ErrExists = errors.New("lockfile already exists")

	// ErrStale indicates the lockfile was removed or replaced while locking it
	ErrStale = errors.New("lockfile was removed while acquiring it")

	// ErrUnsupported indicates advisory locks are unavailable on this platform
	ErrUnsupported = errors.New("file locking is not supported on this platform")
)

// Mode selects how Acquire treats an existing or missing lockfile
type Mode int

const (
	// OpenOrCreate creates the lockfile if absent
	OpenOrCreate Mode = iota
	// CreateNew fails with ErrExists if the lockfile is already present
	CreateNew
	// OpenExisting fails with fs.ErrNotExist if the lockfile is absent
	OpenExisting
)

// LockError records the lockfile path and, when known, the holder's PID
type LockError struct {
	Path string
	PID  int
	Err  error
}

func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("lockfile %s (PID %d): %v", e.Path, e.PID, e.Err)
	}
	return fmt.Sprintf("lockfile %s: %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

func newLockError(path string, pid int, err error) *LockError {
	return &LockError{Path: path, PID: pid, Err: err}
}

// Lockfile is a sidecar file guarding the interval log
type Lockfile struct {
	path string
	pid  int
}

// New creates a Lockfile for the given path. Nothing touches the disk yet.
func New(path string) *Lockfile {
	return &Lockfile{path: path, pid: os.Getpid()}
}

// Path returns the lockfile location
func (l *Lockfile) Path() string {
	return l.path
}

// Exists reports whether the lockfile is present on disk
func (l *Lockfile) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Holder returns the PID recorded by the last process that locked the file
func (l *Lockfile) Holder() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in lockfile: %w", err)
	}
	return pid, nil
}

// Acquire opens the lockfile according to mode and takes an exclusive,
// non-blocking advisory lock on it. Contention fails with ErrBusy.
func (l *Lockfile) Acquire(mode Mode) (*Handle, error) {
	flags := os.O_RDWR
	switch mode {
	case CreateNew:
		flags |= os.O_CREATE | os.O_EXCL
	case OpenOrCreate:
		flags |= os.O_CREATE
	}

	if mode != OpenExisting {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			return nil, newLockError(l.path, 0, fmt.Errorf("failed to create lockfile dir: %w", err))
		}
	}

	file, err := os.OpenFile(l.path, flags, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, newLockError(l.path, 0, ErrExists)
		}
		return nil, newLockError(l.path, 0, fmt.Errorf("failed to open lockfile: %w", err))
	}

	// A lockfile we just created must not outlive a failed acquisition
	abandon := func() {
		_ = file.Close()
		if mode == CreateNew {
			_ = os.Remove(l.path)
		}
	}

	if err := lockFile(file); err != nil {
		abandon()
		if isWouldBlock(err) {
			pid, _ := l.Holder()
			return nil, newLockError(l.path, pid, ErrBusy)
		}
		if errors.Is(err, ErrUnsupported) {
			return nil, newLockError(l.path, 0, err)
		}
		return nil, newLockError(l.path, 0, fmt.Errorf("failed to lock: %w", err))
	}

	if err := l.verify(file); err != nil {
		_ = unlockFile(file)
		_ = file.Close()
		return nil, err
	}

	h := &Handle{path: l.path, file: file}
	if err := h.writePID(l.pid); err != nil {
		_ = unlockFile(file)
		abandon()
		return nil, err
	}

	return h, nil
}

// verify checks that the locked descriptor still names the lockfile path.
// Another process may have unlinked it between our open and our flock.
func (l *Lockfile) verify(file *os.File) error {
	held, err := file.Stat()
	if err != nil {
		return newLockError(l.path, 0, fmt.Errorf("failed to stat locked file: %w", err))
	}

	current, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newLockError(l.path, 0, ErrStale)
		}
		return newLockError(l.path, 0, fmt.Errorf("failed to stat lockfile: %w", err))
	}

	if !os.SameFile(held, current) {
		return newLockError(l.path, 0, ErrStale)
	}
	return nil
}

// Handle is a held lock on the lockfile
type Handle struct {
	path string
	file *os.File
}

// Path returns the locked file's path
func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) writePID(pid int) error {
	if err := h.file.Truncate(0); err != nil {
		return newLockError(h.path, pid, fmt.Errorf("failed to truncate lockfile: %w", err))
	}
	if _, err := h.file.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return newLockError(h.path, pid, fmt.Errorf("failed to write PID to lockfile: %w", err))
	}
	return nil
}

// Release drops the lock and closes the file. The lockfile stays on disk.
func (h *Handle) Release() error {
	if h.file == nil {
		return nil
	}

	var err error
	if unlockErr := unlockFile(h.file); unlockErr != nil {
		err = newLockError(h.path, 0, fmt.Errorf("failed to unlock: %w", unlockErr))
	}
	if closeErr := h.file.Close(); closeErr != nil && err == nil {
		err = newLockError(h.path, 0, fmt.Errorf("failed to close lockfile: %w", closeErr))
	}
	h.file = nil

	return err
}

// ReleaseAndRemove unlinks the lockfile, then drops the lock. The unlink
// happens while the lock is still held. If it fails the lockfile remains
// and the error is returned; the lock is released either way. Once the
// file is gone a failed unlock or close is not reported: the lock lives on
// an unlinked inode that no one can open again.
func (h *Handle) ReleaseAndRemove() error {
	if h.file == nil {
		return newLockError(h.path, 0, errors.New("lock already released"))
	}

	removeErr := os.Remove(h.path)
	if removeErr != nil && errors.Is(removeErr, fs.ErrNotExist) {
		removeErr = nil
	}

	_ = h.Release()

	if removeErr != nil {
		return newLockError(h.path, 0, fmt.Errorf("failed to remove lockfile: %w", removeErr))
	}
	return nil
}
