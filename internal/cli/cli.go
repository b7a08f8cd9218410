// Package cli is the command-line surface over the nurl client
// components: session, liveness, gate and the shortened-URL collection.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"github.com/nurl-sh/nurl-cli/internal/config"
	"github.com/nurl-sh/nurl-cli/internal/container"
	"github.com/nurl-sh/nurl-cli/internal/gate"
	"github.com/nurl-sh/nurl-cli/internal/liveness"
	"github.com/nurl-sh/nurl-cli/internal/session"
	"github.com/nurl-sh/nurl-cli/internal/shortlinks"
	"github.com/nurl-sh/nurl-cli/internal/theme"
)

var (
	// ErrBackendUnreachable is returned when a command needs the backend
	// and the health probe fails.
	ErrBackendUnreachable = errors.New("backend unreachable")
	// ErrNotSignedIn is returned by commands that require a valid
	// session.
	ErrNotSignedIn = errors.New("not signed in, run `nurl login` first")
)

// app bundles the wired components a command needs.
type app struct {
	injector *do.Injector

	cfg     *config.Config
	logger  *zap.Logger
	session *session.Store
	client  *api.Client
	monitor *liveness.Monitor
	gate    *gate.Gate
	links   *shortlinks.Controller
	theme   *theme.Store
}

func newApp() (*app, error) {
	injector := do.New()
	container.RegisterPackages(injector)

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	a := &app{
		injector: injector,
		cfg:      cfg,
		logger:   do.MustInvoke[*zap.Logger](injector),
		session:  do.MustInvoke[*session.Store](injector),
		client:   do.MustInvoke[*api.Client](injector),
		monitor:  do.MustInvoke[*liveness.Monitor](injector),
		gate:     do.MustInvoke[*gate.Gate](injector),
		links:    do.MustInvoke[*shortlinks.Controller](injector),
		theme:    do.MustInvoke[*theme.Store](injector),
	}

	if err := a.session.Hydrate(); err != nil {
		a.logger.Warn("session hydration failed", zap.Error(err))
	}

	return a, nil
}

func (a *app) close() {
	_ = a.injector.Shutdown()
}

// requireBackend probes the backend once and fails fast when it is
// down, so commands surface one clear error instead of per-request
// transport noise.
func (a *app) requireBackend(ctx context.Context) error {
	if !a.monitor.CheckNow(ctx) {
		return ErrBackendUnreachable
	}

	return nil
}

// requireAuth ensures the stored session is accepted by the backend.
func (a *app) requireAuth(ctx context.Context) error {
	if err := a.requireBackend(ctx); err != nil {
		return err
	}

	if a.gate.Evaluate(ctx) != gate.StateAuthenticated {
		return ErrNotSignedIn
	}

	return nil
}

// runWithApp wires an app into a cobra RunE and tears it down after.
func runWithApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		return fn(cmd, args, a)
	}
}

// New builds the root command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:           "nurl",
		Short:         "Manage shortened URLs on a nurl backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newStatusCmd(),
		newListCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newThemeCmd(),
	)

	return root
}
