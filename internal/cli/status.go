package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend reachability and session state",
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "backend:  %s\n", a.cfg.BackendURL)

			alive := a.monitor.CheckNow(ctx)
			if alive {
				fmt.Fprintln(out, "health:   up")
			} else {
				fmt.Fprintln(out, "health:   down")
			}

			fmt.Fprintf(out, "session:  %s\n", a.gate.Evaluate(ctx))

			return nil
		}),
	}
}
