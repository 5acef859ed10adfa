package clock

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time so callers can replace it in tests
type Clock interface {
	Now() time.Time
}

// System is the production clock backed by time.Now
type System struct{}

// New returns a clock that reads the host's wall clock
func New() System {
	return System{}
}

// Now returns the current local time
func (System) Now() time.Time {
	return time.Now()
}

// Fake is a settable clock for tests
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a fake clock frozen at the given Unix second
func NewFake(unix int64) *Fake {
	return &Fake{now: time.Unix(unix, 0)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to the given Unix second, backwards included
func (f *Fake) Set(unix int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = time.Unix(unix, 0)
}

// Advance moves the clock forward by d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
