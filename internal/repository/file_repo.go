package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/andy/track/internal/domain"
)

// FileRepo is a JSON flat-file implementation of IntervalRepository.
//
// The file holds a JSON array of [start, end|null, active] tuples in Unix
// seconds. Saves go through a temp file and a rename, so a crash mid-save
// leaves the previous log in place.
type FileRepo struct {
	path   string
	logger *slog.Logger
}

// NewFileRepo creates a FileRepo for the database file at path
func NewFileRepo(path string, logger *slog.Logger) *FileRepo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileRepo{path: path, logger: logger}
}

func (r *FileRepo) Path() string {
	return r.path
}

// Load reads and decodes the interval log
func (r *FileRepo) Load(ctx context.Context) ([]domain.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("database file absent, starting empty", "path", r.path)
			return []domain.Interval{}, nil
		}
		return nil, fmt.Errorf("failed to read database: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Interval{}, nil
	}

	var intervals []domain.Interval
	if err := json.Unmarshal(data, &intervals); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, r.path, err)
	}
	if intervals == nil {
		// a literal null
		return nil, fmt.Errorf("%w: %s: expected an array", ErrDecode, r.path)
	}

	// Hand-edited logs are still usable; surface the problem instead
	if err := domain.ValidateLog(intervals); err != nil {
		r.logger.Warn("interval log is out of order", "path", r.path, "error", err)
	}

	r.logger.Debug("loaded intervals", "path", r.path, "count", len(intervals))
	return intervals, nil
}

// Save encodes the intervals and atomically replaces the database file
func (r *FileRepo) Save(ctx context.Context, intervals []domain.Interval) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if intervals == nil {
		intervals = []domain.Interval{}
	}

	data, err := json.Marshal(intervals)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	data = append(data, '\n')

	if err := atomicWrite(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save database: %w", err)
	}

	r.logger.Debug("saved intervals", "path", r.path, "count", len(intervals))
	return nil
}
