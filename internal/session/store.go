// Package session owns the client's belief about whether a user is
// signed in: the persisted bearer token, its one-time hydration from
// durable storage, and the claims embedded in it.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nurl-sh/nurl-cli/internal/storage"
	"go.uber.org/zap"
)

// storageKey is the namespace the session blob is persisted under.
const storageKey = "auth"

// Session is a snapshot of the token store.
type Session struct {
	// Token is the bearer token, empty when signed out.
	Token string
	// Hydrated reports whether persisted state has been loaded yet.
	// Until then the session is unknown, not unauthenticated, and no
	// authentication decision may be made from it.
	Hydrated bool
}

type persistedSession struct {
	Token string `json:"token"`
}

// Store holds the current session token and persists it across runs.
// It has no network side effects.
type Store struct {
	storage storage.Store
	logger  *zap.Logger

	mu       sync.Mutex
	token    string
	hydrated bool
	nextSub  int
	subs     map[int]func(Session)
}

// NewStore creates a token store backed by st. The store reports
// Hydrated=false until Hydrate is called.
func NewStore(st storage.Store, logger *zap.Logger) *Store {
	return &Store{
		storage: st,
		logger:  logger,
		subs:    make(map[int]func(Session)),
	}
}

// Hydrate loads the persisted token. The load runs at most once; later
// calls are no-ops. Hydration completes even when the read fails, so
// the application is never stuck in the unknown state over a bad state
// file; the error is returned for logging.
func (s *Store) Hydrate() error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return nil
	}

	raw, ok, err := s.storage.Get(storageKey)
	if err == nil && ok {
		var p persistedSession
		if jsonErr := json.Unmarshal(raw, &p); jsonErr != nil {
			s.logger.Warn("discarding unreadable persisted session", zap.Error(jsonErr))
		} else {
			s.token = p.Token
		}
	}

	s.hydrated = true
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}

	if err != nil {
		return fmt.Errorf("session: hydrate: %w", err)
	}

	return nil
}

// Get returns the current session snapshot.
func (s *Store) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Session{Token: s.token, Hydrated: s.hydrated}
}

// SetToken replaces the current token, persists it, and notifies
// subscribers. An empty token signs the user out.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	data, err := json.Marshal(persistedSession{Token: token})
	if err == nil {
		err = s.storage.Set(storageKey, data)
	}
	if err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Clear signs the user out.
func (s *Store) Clear() {
	s.SetToken("")
}

// Subscribe registers fn to run on every session change, including
// hydration. Returns an unsubscribe function.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subs, id)
	}
}

func (s *Store) snapshotLocked() (Session, []func(Session)) {
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}

	return Session{Token: s.token, Hydrated: s.hydrated}, subs
}
