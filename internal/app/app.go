package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/andy/track/internal/clock"
	"github.com/andy/track/internal/config"
	"github.com/andy/track/internal/lock"
	"github.com/andy/track/internal/logging"
	"github.com/andy/track/internal/repository"
	"github.com/andy/track/internal/service"
)

// Options carries the per-invocation inputs that do not live in the config file
type Options struct {
	// Verbosity is -1 for silent, 0 for errors only, higher for more detail
	Verbosity int

	// LogWriter receives diagnostics; defaults to stderr
	LogWriter io.Writer

	// Clock defaults to the system clock
	Clock clock.Clock
}

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clock.Clock

	Lockfile     *lock.Lockfile
	IntervalRepo repository.IntervalRepository

	// Services
	TrackerService service.TrackerService
	ReportService  service.ReportService
	ExportService  service.ExportService
}

// NewWithConfig creates an App from a resolved config.
// Nothing touches the filesystem until a service method runs.
func NewWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logger := logging.New(opts.Verbosity, w)

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	dbPath := config.NormalizeDBPath(cfg.Database.Path)
	lockPath := cfg.Lockfile.Path
	if lockPath == "" {
		lockPath = config.DefaultLockfilePath
	}

	logger.Debug("resolved paths", "db", dbPath, "lockfile", lockPath)

	lockfile := lock.New(lockPath)
	intervalRepo := repository.NewFileRepo(dbPath, logger)

	return &App{
		Config:         cfg,
		Logger:         logger,
		Clock:          clk,
		Lockfile:       lockfile,
		IntervalRepo:   intervalRepo,
		TrackerService: service.NewTrackerService(lockfile, intervalRepo, clk, logger),
		ReportService:  service.NewReportService(intervalRepo, clk),
		ExportService:  service.NewExportService(intervalRepo, clk, logger),
	}, nil
}

// ReportWindow returns the configured report window, falling back to 24h
func (a *App) ReportWindow() time.Duration {
	if a.Config.Report.Window > 0 {
		return a.Config.Report.Window
	}
	return service.DefaultReportWindow
}
