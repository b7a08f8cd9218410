// Package theme persists the user's theme preference under its own
// storage namespace, separate from the session blob.
package theme

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nurl-sh/nurl-cli/internal/storage"
	"go.uber.org/zap"
)

const storageKey = "theme"

// Theme is a color-scheme preference.
type Theme string

const (
	// ThemeSystem defers to the terminal/OS default.
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ErrUnknownTheme is returned when setting a value outside the known
// set.
var ErrUnknownTheme = errors.New("theme: unknown theme")

type persistedTheme struct {
	Theme Theme `json:"theme"`
}

// Store reads and writes the persisted theme preference.
type Store struct {
	storage storage.Store
	logger  *zap.Logger
}

// NewStore creates a theme store backed by st.
func NewStore(st storage.Store, logger *zap.Logger) *Store {
	return &Store{storage: st, logger: logger}
}

// Get returns the persisted preference, or ThemeSystem when unset or
// unreadable.
func (s *Store) Get() Theme {
	raw, ok, err := s.storage.Get(storageKey)
	if err != nil || !ok {
		return ThemeSystem
	}

	var p persistedTheme
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn("discarding unreadable theme preference", zap.Error(err))
		return ThemeSystem
	}

	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return p.Theme
	default:
		return ThemeSystem
	}
}

// Set persists the preference.
func (s *Store) Set(t Theme) error {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTheme, t)
	}

	data, err := json.Marshal(persistedTheme{Theme: t})
	if err != nil {
		return fmt.Errorf("theme: encode: %w", err)
	}

	if err := s.storage.Set(storageKey, data); err != nil {
		return fmt.Errorf("theme: persist: %w", err)
	}

	return nil
}
