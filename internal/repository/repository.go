package repository

import (
	"context"
	"errors"

	"github.com/andy/track/internal/domain"
)

var (
	// ErrDecode means the database file is not a valid interval log
	ErrDecode = errors.New("database is corrupt")

	// ErrEncode means an interval could not be serialized
	ErrEncode = errors.New("failed to encode intervals")
)

// IntervalRepository manages persistence of the ordered interval log
type IntervalRepository interface {
	// Load returns the whole log. A missing or blank file is an empty log.
	Load(ctx context.Context) ([]domain.Interval, error)

	// Save replaces the whole log with the given intervals
	Save(ctx context.Context, intervals []domain.Interval) error

	// Path returns the location of the database file
	Path() string
}
