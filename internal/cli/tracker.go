package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/output"
	"github.com/andy/track/internal/service"
	"github.com/spf13/cobra"
)

func newStartCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start tracking time",
		Long: `Start a new interval at the current time.

Fails if tracking is already running. An interval left open by a crashed run
is closed at the current time first.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}

			started, err := a.TrackerService.Start(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to start tracking: %w", err)
			}

			out := cmd.OutOrStdout()
			s := styles(out)
			fmt.Fprintf(out, "%s Started tracking at %s\n", s.Success.Render("✓"), output.FormatTime(started.Start))
			return nil
		},
	}
}

func newStopCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking time",
		Long:  `Close the running interval at the current time and remove the lockfile.`,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}

			stopped, err := a.TrackerService.Stop(cmd.Context())
			if err != nil && !errors.Is(err, service.ErrLockfileCleanupFailed) {
				return fmt.Errorf("failed to stop tracking: %w", err)
			}

			out := cmd.OutOrStdout()
			s := styles(out)
			if stopped == nil {
				if err != nil {
					return fmt.Errorf("failed to stop tracking: %w", err)
				}
				fmt.Fprintf(out, "%s No open interval was found; lockfile cleared\n", s.Warning.Render("!"))
			} else {
				printStopped(out, s, stopped)
			}

			// The interval is saved even when the lockfile stays behind
			return err
		},
	}
}

func printStopped(out io.Writer, s output.Styles, iv *domain.Interval) {
	end := iv.EndOr(iv.Start)
	fmt.Fprintf(out, "%s Stopped tracking\n", s.Success.Render("✓"))
	fmt.Fprintf(out, "  Started:  %s\n", output.FormatTime(iv.Start))
	fmt.Fprintf(out, "  Stopped:  %s\n", output.FormatTime(end))
	fmt.Fprintf(out, "  Duration: %s\n", s.Value.Render(output.FormatDuration(iv.Duration(end))))
}

func newStatusCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether tracking is running",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}

			st, err := a.TrackerService.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			out := cmd.OutOrStdout()
			s := styles(out)

			if st.State == domain.TrackerStateIdle {
				fmt.Fprintf(out, "Status: %s\n", s.Muted.Render(string(st.State)))
			} else {
				fmt.Fprintf(out, "Status: %s\n", s.Success.Render(string(st.State)))
			}
			if st.Active != nil {
				fmt.Fprintf(out, "  Started: %s\n", output.FormatTime(st.Active.Start))
				fmt.Fprintf(out, "  Elapsed: %s\n", s.Value.Render(output.FormatDuration(st.Elapsed)))
			}
			if st.HolderPID > 0 {
				fmt.Fprintf(out, "  Lockfile: %s (last holder PID %d)\n", a.Lockfile.Path(), st.HolderPID)
			}
			if st.Inconsistent {
				if st.State == domain.TrackerStateRunning {
					fmt.Fprintf(out, "%s Lockfile exists but no interval is open; run \"track stop\" to clear it\n", s.Warning.Render("!"))
				} else {
					fmt.Fprintf(out, "%s An interval is open without a lockfile; the next \"track start\" closes it\n", s.Warning.Render("!"))
				}
			}
			return nil
		},
	}
}
