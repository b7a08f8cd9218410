// Package config loads client configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds client settings loaded from the environment.
type Config struct {
	// BackendURL is the base URL of the nurl backend (e.g. http://localhost:8080).
	BackendURL string `mapstructure:"NURL_BACKEND_URL"`
	// PollInterval is the backend health poll interval (e.g. "3s").
	PollInterval string `mapstructure:"NURL_POLL_INTERVAL"`
	// RequestTimeout bounds a single API call (e.g. "10s").
	RequestTimeout string `mapstructure:"NURL_REQUEST_TIMEOUT"`
	// StateDir is where persisted client state (session token, theme
	// preference) lives. Defaults to the user state directory.
	StateDir string `mapstructure:"NURL_STATE_DIR"`
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result. Env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("NURL_BACKEND_URL", "http://localhost:8080")
	v.SetDefault("NURL_POLL_INTERVAL", "3s")
	v.SetDefault("NURL_REQUEST_TIMEOUT", "10s")
	v.SetDefault("NURL_STATE_DIR", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.BackendURL == "" {
		return nil, errors.New("config: NURL_BACKEND_URL must be set")
	}
	if !strings.HasPrefix(cfg.BackendURL, "http://") && !strings.HasPrefix(cfg.BackendURL, "https://") {
		cfg.BackendURL = "http://" + cfg.BackendURL
	}

	if cfg.StateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return nil, err
		}

		cfg.StateDir = dir
	}

	return &cfg, nil
}

// Interval parses PollInterval as a duration. Returns 3s if unset or
// invalid.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}

	return d
}

// Timeout parses RequestTimeout as a duration. Returns 10s if unset or
// invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}

	return d
}

func defaultStateDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "nurl"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".local", "state", "nurl"), nil
}
