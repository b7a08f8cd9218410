package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurl-sh/nurl-cli/internal/theme"
)

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Read or change the theme preference",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current theme",
			RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.theme.Get())

				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <system|light|dark>",
			Short: "Persist a theme preference",
			Args:  cobra.ExactArgs(1),
			RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
				return a.theme.Set(theme.Theme(args[0]))
			}),
		},
	)

	return cmd
}
