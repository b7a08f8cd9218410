package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurl-sh/nurl-cli/internal/session"
)

func newLoginCmd() *cobra.Command {
	var (
		username string
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireBackend(ctx); err != nil {
				return err
			}

			res := a.client.Login(ctx, username, password, remember)
			if !res.OK() {
				return loginError(res.Err, res.TargetField)
			}

			a.session.SetToken(res.Data)

			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", username)

			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "request a long-lived session")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var (
		username string
		password string
		confirm  string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireBackend(ctx); err != nil {
				return err
			}

			if confirm == "" {
				confirm = password
			}

			res := a.client.Register(ctx, username, password, confirm)
			if !res.OK() {
				return loginError(res.Err, res.TargetField)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "account %s created, run `nurl login` to sign in\n", username)

			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if a.session.Get().Token == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no session stored")
				return nil
			}

			a.session.Clear()

			fmt.Fprintln(cmd.OutOrStdout(), "signed out")

			return nil
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the stored session",
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
			token := a.session.Get().Token
			if token == "" {
				return ErrNotSignedIn
			}

			claims, err := session.ParseClaims(token)
			if errors.Is(err, session.ErrInvalidToken) {
				return fmt.Errorf("stored token is malformed, run `nurl logout` and sign in again: %w", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "username: %s\n", claims.Username)
			if !claims.IssuedAt.IsZero() {
				fmt.Fprintf(out, "issued:   %s\n", claims.IssuedAt.Format("2006-01-02 15:04:05 MST"))
			}
			if !claims.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expires:  %s\n", claims.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			}

			return nil
		}),
	}
}

// loginError folds the envelope's message and field target into one
// readable error.
func loginError(msg, field string) error {
	if field != "" {
		return fmt.Errorf("%s (%s)", msg, field)
	}

	return errors.New(msg)
}
