package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andy/track/internal/app"
	"github.com/andy/track/internal/clock"
	"github.com/andy/track/internal/config"
	"github.com/andy/track/internal/logging"
	"github.com/andy/track/internal/output"
	"github.com/spf13/cobra"
)

// Options configures a command tree. Zero values mean the process defaults.
type Options struct {
	Version string
	Clock   clock.Clock

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ConfigPath is used when --config is not given
	ConfigPath string
}

// globals holds the persistent flags shared by all subcommands
type globals struct {
	opts Options

	dbPath     string
	lockPath   string
	configPath string
	verbose    int
	quiet      int
}

// NewRootCommand builds the track command tree
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	g := &globals{opts: opts}

	rootCmd := &cobra.Command{
		Use:   "track",
		Short: "Track working time from the command line",
		Long: `Track records working intervals in a JSON database file.

Run "track start" when you begin and "track stop" when you finish.
"track report" sums the intervals of the last 24 hours.`,
		Version:       opts.Version,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetOut(cmd.ErrOrStderr())
			if err := cmd.Help(); err != nil {
				return err
			}
			return usageErrorf("a subcommand is required")
		},
	}

	if opts.Stdin != nil {
		rootCmd.SetIn(opts.Stdin)
	}
	if opts.Stdout != nil {
		rootCmd.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		rootCmd.SetErr(opts.Stderr)
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.dbPath, "db-dir", "d", config.DefaultDatabasePath, "path to the database file (.json is appended when missing)")
	pf.StringVarP(&g.lockPath, "lockfile", "l", config.DefaultLockfilePath, "path to the lockfile")
	pf.CountVarP(&g.verbose, "verbose", "v", "increase logging verbosity")
	pf.CountVarP(&g.quiet, "quiet", "q", "silence logging")
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.config/track/config.yaml)")

	// Defined here so cobra uses -V instead of claiming -v for the version
	rootCmd.Flags().BoolP("version", "V", false, "print version")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(
		newStartCommand(g),
		newStopCommand(g),
		newReportCommand(g),
		newStatusCommand(g),
		newWatchCommand(g),
		newExportCommand(g),
	)

	return rootCmd
}

// Execute runs the command tree against the process arguments
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(Options{Version: version}).ExecuteContext(ctx)
}

// newApp resolves config and flags into an App for one invocation
func (g *globals) newApp(cmd *cobra.Command) (*app.App, error) {
	cfgPath := g.configPath
	if cfgPath == "" {
		cfgPath = g.opts.ConfigPath
	}
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", cfgPath, err)
	}

	// Flags override the config file
	flags := cmd.Flags()
	if flags.Changed("db-dir") {
		cfg.Database.Path = config.NormalizeDBPath(g.dbPath)
	}
	if flags.Changed("lockfile") {
		cfg.Lockfile.Path = g.lockPath
	}

	return app.NewWithConfig(cmd.Context(), cfg, app.Options{
		Verbosity: logging.Verbosity(g.verbose, g.quiet),
		LogWriter: cmd.ErrOrStderr(),
		Clock:     g.opts.Clock,
	})
}

// styles picks colored output only for terminals
func styles(w io.Writer) output.Styles {
	return output.NewStyles(colorEnabled(w))
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && output.ColorEnabled(f)
}
