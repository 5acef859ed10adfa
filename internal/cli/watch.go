package cli

import (
	"os"

	"github.com/andy/track/internal/output"
	"github.com/andy/track/internal/tui"
	"github.com/spf13/cobra"
)

func newWatchCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show a live view of the tracker",
		Long: `Open a full-screen view with the tracker state, the elapsed time and
the total for the report window. Press s to start or stop, q to quit.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, inOK := cmd.InOrStdin().(*os.File)
			out, outOK := cmd.OutOrStdout().(*os.File)
			if !inOK || !outOK || !output.IsTerminal(in) || !output.IsTerminal(out) {
				return ErrNoTerminal
			}

			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}

			return tui.Run(cmd.Context(), a, in, out)
		},
	}
}
