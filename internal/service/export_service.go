package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/andy/track/internal/clock"
	"github.com/andy/track/internal/db"
	"github.com/andy/track/internal/repository"
)

// ExportService copies the interval log into a SQLite database for ad-hoc
// queries. Like reports it reads the log without locking.
type ExportService interface {
	// Export replaces the intervals table of the SQLite file at path and
	// returns the number of intervals written
	Export(ctx context.Context, path string) (int, error)
}

type exportService struct {
	repo   repository.IntervalRepository
	clock  clock.Clock
	logger *slog.Logger
}

// NewExportService creates a new export service
func NewExportService(repo repository.IntervalRepository, clk clock.Clock, logger *slog.Logger) ExportService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &exportService{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

func (s *exportService) Export(ctx context.Context, path string) (int, error) {
	intervals, err := s.repo.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load intervals: %w", err)
	}

	database, err := db.Open(path)
	if err != nil {
		return 0, err
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM intervals"); err != nil {
		return 0, fmt.Errorf("failed to clear intervals: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO intervals (seq, start_unix, end_unix, active) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, iv := range intervals {
		var end sql.NullInt64
		if iv.End != nil {
			end = sql.NullInt64{Int64: iv.End.Unix(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, seq, iv.Start.Unix(), end, iv.IsOpen()); err != nil {
			return 0, fmt.Errorf("failed to insert interval %d: %w", seq, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO exports (source_path, interval_count, exported_at) VALUES (?, ?, ?)",
		s.repo.Path(), len(intervals), s.clock.Now().Unix(),
	); err != nil {
		return 0, fmt.Errorf("failed to record export: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}

	s.logger.Info("exported intervals", "path", path, "count", len(intervals))
	return len(intervals), nil
}
