// Package container wires the client components into a samber/do
// injector.
package container

import (
	"net/http"
	"path/filepath"

	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"github.com/nurl-sh/nurl-cli/internal/config"
	"github.com/nurl-sh/nurl-cli/internal/gate"
	"github.com/nurl-sh/nurl-cli/internal/liveness"
	"github.com/nurl-sh/nurl-cli/internal/session"
	"github.com/nurl-sh/nurl-cli/internal/shortlinks"
	"github.com/nurl-sh/nurl-cli/internal/storage"
	"github.com/nurl-sh/nurl-cli/internal/theme"
)

// RegisterPackages registers every client component with the injector.
func RegisterPackages(injector *do.Injector) {
	ConfigPackage(injector)
	LoggerPackage(injector)
	StoragePackage(injector)
	SessionPackage(injector)
	APIPackage(injector)
	LivenessPackage(injector)
	GatePackage(injector)
	ShortlinksPackage(injector)
	ThemePackage(injector)
}

// ConfigPackage provides configuration loaded from the environment.
func ConfigPackage(injector *do.Injector) {
	do.Provide(injector, func(*do.Injector) (*config.Config, error) {
		return config.Load()
	})
}

// LoggerPackage provides the application logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(*do.Injector) (*zap.Logger, error) {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}

		return cfg.Build()
	})
}

// StoragePackage provides the durable key-value store holding persisted
// client state.
func StoragePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (storage.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return storage.NewFileStore(filepath.Join(cfg.StateDir, "state.json"))
	})
}

// SessionPackage provides the token store.
func SessionPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*session.Store, error) {
		return session.NewStore(
			do.MustInvoke[storage.Store](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// APIPackage provides the backend REST client, reading the bearer token
// from the session store at call time.
func APIPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*api.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sessionStore := do.MustInvoke[*session.Store](i)

		return api.NewClient(
			cfg.BackendURL,
			&http.Client{Timeout: cfg.Timeout()},
			func() string { return sessionStore.Get().Token },
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// LivenessPackage provides the backend health monitor.
func LivenessPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*liveness.Monitor, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return liveness.NewMonitor(
			do.MustInvoke[*api.Client](i),
			cfg.Interval(),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// GatePackage provides the session gate.
func GatePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*gate.Gate, error) {
		return gate.New(
			do.MustInvoke[*session.Store](i),
			do.MustInvoke[*liveness.Monitor](i),
			do.MustInvoke[*api.Client](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// ShortlinksPackage provides the URL collection controller.
func ShortlinksPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortlinks.Controller, error) {
		return shortlinks.NewController(
			do.MustInvoke[*api.Client](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// ThemePackage provides the theme preference store.
func ThemePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*theme.Store, error) {
		return theme.NewStore(
			do.MustInvoke[storage.Store](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}
