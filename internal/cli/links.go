package cli

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"github.com/nurl-sh/nurl-cli/internal/expiration"
	"github.com/nurl-sh/nurl-cli/internal/shortlinks"
)

// expirationFlags collects the mutually exclusive expiration inputs.
type expirationFlags struct {
	preset string
	at     string
	in     int64
	unit   string
}

func (f *expirationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "expires-preset", "", "expire after a preset duration (1h, 24h, 7d, 30d)")
	cmd.Flags().StringVar(&f.at, "expires-at", "", "expire at an absolute time (RFC 3339)")
	cmd.Flags().Int64Var(&f.in, "expires-in", 0, "expire after a custom amount of --expires-unit")
	cmd.Flags().StringVar(&f.unit, "expires-unit", string(expiration.UnitDay), "unit for --expires-in (minute, hour, day, week, month)")
}

// intent resolves the flags to an expiration intent. At most one of
// --expires-preset, --expires-at and --expires-in may be set; none of
// them means the link never expires.
func (f *expirationFlags) intent() (expiration.Intent, error) {
	set := 0
	for _, used := range []bool{f.preset != "", f.at != "", f.in != 0} {
		if used {
			set++
		}
	}
	if set > 1 {
		return expiration.Intent{}, fmt.Errorf("--expires-preset, --expires-at and --expires-in are mutually exclusive")
	}

	switch {
	case f.at != "":
		at, err := time.Parse(time.RFC3339, f.at)
		if err != nil {
			return expiration.Intent{}, fmt.Errorf("invalid --expires-at: %w", err)
		}

		return expiration.At(at), nil
	case f.in != 0:
		if f.in < 0 {
			return expiration.Intent{}, fmt.Errorf("invalid --expires-in: must be positive")
		}

		switch unit := expiration.Unit(f.unit); unit {
		case expiration.UnitMinute, expiration.UnitHour, expiration.UnitDay,
			expiration.UnitWeek, expiration.UnitMonth:
			return expiration.Custom(f.in, unit), nil
		default:
			return expiration.Intent{}, fmt.Errorf("invalid --expires-unit: %q", f.unit)
		}
	case f.preset != "":
		switch preset := expiration.Preset(f.preset); preset {
		case expiration.Preset1Hour, expiration.Preset24Hours,
			expiration.Preset7Days, expiration.Preset30Days:
			return expiration.After(preset), nil
		default:
			return expiration.Intent{}, fmt.Errorf("invalid --expires-preset: %q", f.preset)
		}
	default:
		return expiration.Never(), nil
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your shortened URLs",
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}

			if err := a.links.Refresh(ctx); err != nil {
				return err
			}

			urls := a.links.URLs()
			if len(urls) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no shortened URLs yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSHORT\tORIGINAL\tREDIRECTS\tEXPIRES")
			for _, u := range urls {
				expires := "never"
				if u.ExpiryDate != nil {
					expires = u.ExpiryDate.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					u.ID, u.ShortURL, u.OriginalURL, u.Redirects, expires)
			}

			return w.Flush()
		}),
	}
}

func newCreateCmd() *cobra.Command {
	var (
		customPath string
		expFlags   expirationFlags
	)

	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Shorten a URL",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}
			if err := a.links.Refresh(ctx); err != nil {
				return err
			}

			intent, err := expFlags.intent()
			if err != nil {
				return err
			}

			payload := api.CreatePayload{
				OriginalURL: args[0],
				CustomPath:  customPath,
				Expiration:  expiration.Compute(intent, time.Now()),
			}

			created, pending, err := a.links.Create(ctx, payload)
			if err != nil {
				return err
			}
			if pending != nil {
				created, err = resolveDuplicate(cmd, a.links, pending)
				if err != nil {
					return err
				}
				if created == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
					return nil
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", created.ShortURL, created.OriginalURL)

			return nil
		}),
	}

	cmd.Flags().StringVar(&customPath, "path", "", "custom short path (random when omitted)")
	expFlags.register(cmd)

	return cmd
}

// resolveDuplicate walks the user through the replace-or-add workflow
// when the submitted URL is already shortened. Returns nil when the
// user cancels.
func resolveDuplicate(cmd *cobra.Command, links *shortlinks.Controller, pending *shortlinks.PendingReplacement) (*api.ShortURL, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is already shortened as %s\n",
		pending.Duplicate.OriginalURL, pending.Duplicate.ShortURL)

	options := "[r]eplace / [c]ancel"
	if links.CanAddAnyway() {
		options = "[r]eplace / [a]dd anyway / [c]ancel"
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "%s: ", options)
		if !scanner.Scan() {
			links.Cancel()
			return nil, scanner.Err()
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r", "replace":
			return links.Replace(cmd.Context())
		case "a", "add":
			if !links.CanAddAnyway() {
				fmt.Fprintln(out, "the custom path matches the existing short URL, pick replace or cancel")
				continue
			}

			return links.AddAnyway(cmd.Context())
		case "c", "cancel":
			links.Cancel()
			return nil, nil
		default:
			continue
		}
	}
}

func newUpdateCmd() *cobra.Command {
	var (
		originalURL string
		customPath  string
		expFlags    expirationFlags
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a shortened URL",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}
			if err := a.links.Refresh(ctx); err != nil {
				return err
			}

			if originalURL == "" {
				for _, u := range a.links.URLs() {
					if u.ID == args[0] {
						originalURL = u.OriginalURL
						break
					}
				}
			}

			intent, err := expFlags.intent()
			if err != nil {
				return err
			}

			updated, err := a.links.Update(ctx, api.UpdatePayload{
				ID:          args[0],
				OriginalURL: originalURL,
				CustomPath:  customPath,
				Expiration:  expiration.Compute(intent, time.Now()),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", updated.ShortURL, updated.OriginalURL)

			return nil
		}),
	}

	cmd.Flags().StringVar(&originalURL, "url", "", "new destination URL (keeps the current one when omitted)")
	cmd.Flags().StringVar(&customPath, "path", "", "new custom short path")
	expFlags.register(cmd)

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a shortened URL",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}

			if err := a.links.Delete(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "deleted")

			return nil
		}),
	}
}
