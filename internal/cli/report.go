package cli

import (
	"fmt"
	"time"

	"github.com/andy/track/internal/output"
	"github.com/spf13/cobra"
)

func newReportCommand(g *globals) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report tracked time for the last 24 hours",
		Long: `Print every interval that overlaps the report window and their total.

The window ends now and defaults to 24 hours; --since or report.window in the
config file changes its length. Durations are clipped to the window and a
running interval counts up to now.`,
		Example: `  track report
  track report --since 168h`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if since < 0 {
				return usageErrorf("--since must not be negative")
			}

			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}

			window := since
			if window == 0 {
				window = a.ReportWindow()
			}

			report, err := a.ReportService.Report(cmd.Context(), window)
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}

			out := cmd.OutOrStdout()
			return output.NewReportWriter(colorEnabled(out)).Write(out, report)
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "report window length (default from config, 24h)")

	return cmd
}

func newExportCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Copy all intervals into a SQLite database",
		Long: `Write every interval to the "intervals" table of a SQLite database.

The file is created when missing. Rows from an earlier export are replaced.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}

			n, err := a.ExportService.Export(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to export intervals: %w", err)
			}

			out := cmd.OutOrStdout()
			s := styles(out)
			fmt.Fprintf(out, "%s Exported %d intervals to %s\n", s.Success.Render("✓"), n, args[0])
			return nil
		},
	}
}
