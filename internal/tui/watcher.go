package tui

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a fixed set of files. It watches their parent
// directories because the database is replaced by rename and the lockfile
// comes and goes.
type Watcher struct {
	fsw     *fsnotify.Watcher
	names   map[string]struct{}
	logger  *slog.Logger
	changes chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a Watcher for the given file paths
func NewWatcher(logger *slog.Logger, paths ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		names:   make(map[string]struct{}, len(paths)),
		logger:  logger,
		changes: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.names[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, seen := dirs[dir]; seen {
			continue
		}
		dirs[dir] = struct{}{}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Changes delivers at most one pending notification at a time
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins forwarding filesystem events
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if _, watched := w.names[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			w.logger.Debug("tracker file changed", "path", ev.Name, "op", ev.Op.String())
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

// Stop halts the watcher and closes the Changes channel
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()
	close(w.changes)
	return w.fsw.Close()
}
