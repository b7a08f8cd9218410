package gate_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"github.com/nurl-sh/nurl-cli/internal/gate"
	"github.com/nurl-sh/nurl-cli/internal/session"
	"github.com/nurl-sh/nurl-cli/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLiveness is a hand-driven Liveness.
type fakeLiveness struct {
	alive bool
	subs  []func(bool)
}

func (f *fakeLiveness) Alive() bool {
	return f.alive
}

func (f *fakeLiveness) Subscribe(fn func(bool)) func() {
	f.subs = append(f.subs, fn)

	return func() {}
}

func (f *fakeLiveness) set(alive bool) {
	f.alive = alive
	for _, fn := range f.subs {
		fn(alive)
	}
}

// fakeChecker scripts CheckAuth outcomes and counts calls.
type fakeChecker struct {
	result api.Result[struct{}]
	calls  int
}

func (f *fakeChecker) CheckAuth(context.Context) api.Result[struct{}] {
	f.calls++

	return f.result
}

func authOK() api.Result[struct{}] {
	return api.Result[struct{}]{Status: http.StatusOK}
}

func authRejected() api.Result[struct{}] {
	return api.Result[struct{}]{Err: "Invalid token", Status: http.StatusUnauthorized}
}

func authUnreachable() api.Result[struct{}] {
	return api.Result[struct{}]{Err: "backend unreachable"}
}

type fixture struct {
	store   *session.Store
	live    *fakeLiveness
	checker *fakeChecker
	gate    *gate.Gate
}

func newFixture(t *testing.T, persistedToken string) *fixture {
	t.Helper()

	st := storage.NewMemoryStore()
	if persistedToken != "" {
		require.NoError(t, st.Set("auth", []byte(`{"token":"`+persistedToken+`"}`)))
	}

	f := &fixture{
		store:   session.NewStore(st, zap.NewNop()),
		live:    &fakeLiveness{alive: true},
		checker: &fakeChecker{result: authOK()},
	}
	f.gate = gate.New(f.store, f.live, f.checker, zap.NewNop())

	return f
}

func TestGateHydrationGating(t *testing.T) {
	t.Run("stays unknown before hydration regardless of inputs", func(t *testing.T) {
		f := newFixture(t, "tok")

		assert.Equal(t, gate.StateUnknown, f.gate.Evaluate(context.Background()))

		f.live.alive = false
		assert.Equal(t, gate.StateUnknown, f.gate.Evaluate(context.Background()))
		assert.Zero(t, f.checker.calls)
	})

	t.Run("bind resolves after hydration", func(t *testing.T) {
		f := newFixture(t, "tok")

		unbind := f.gate.Bind(context.Background())
		defer unbind()

		assert.Equal(t, gate.StateUnknown, f.gate.State())

		require.NoError(t, f.store.Hydrate())

		assert.Equal(t, gate.StateAuthenticated, f.gate.State())
	})
}

func TestGateTransitions(t *testing.T) {
	t.Run("no token resolves unauthenticated without a network call", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.store.Hydrate())

		state := f.gate.Evaluate(context.Background())

		assert.Equal(t, gate.StateUnauthenticated, state)
		assert.Zero(t, f.checker.calls)
	})

	t.Run("valid token confirmed by backend", func(t *testing.T) {
		f := newFixture(t, "tok")
		require.NoError(t, f.store.Hydrate())

		state := f.gate.Evaluate(context.Background())

		assert.Equal(t, gate.StateAuthenticated, state)
		assert.Equal(t, 1, f.checker.calls)
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		f := newFixture(t, "tok")
		f.checker.result = authRejected()
		require.NoError(t, f.store.Hydrate())

		state := f.gate.Evaluate(context.Background())

		assert.Equal(t, gate.StateUnauthenticated, state)
		assert.Empty(t, f.store.Get().Token)
	})

	t.Run("unreachable backend suspends evaluation", func(t *testing.T) {
		f := newFixture(t, "tok")
		require.NoError(t, f.store.Hydrate())
		require.Equal(t, gate.StateAuthenticated, f.gate.Evaluate(context.Background()))

		f.live.alive = false
		state := f.gate.Evaluate(context.Background())

		// The prior authenticated state is preserved, no re-check runs
		// and the token survives.
		assert.Equal(t, gate.StateAuthenticated, state)
		assert.Equal(t, 1, f.checker.calls)
		assert.Equal(t, "tok", f.store.Get().Token)
	})

	t.Run("transport failure during recheck preserves state and token", func(t *testing.T) {
		f := newFixture(t, "tok")
		require.NoError(t, f.store.Hydrate())
		require.Equal(t, gate.StateAuthenticated, f.gate.Evaluate(context.Background()))

		// The poller has not noticed the outage yet: alive is stale-true
		// and the check itself fails on transport.
		f.checker.result = authUnreachable()
		state := f.gate.Evaluate(context.Background())

		assert.Equal(t, gate.StateAuthenticated, state)
		assert.Equal(t, "tok", f.store.Get().Token)
	})
}

func TestGateBind(t *testing.T) {
	t.Run("liveness recovery triggers re-evaluation", func(t *testing.T) {
		f := newFixture(t, "tok")
		f.live.alive = false
		require.NoError(t, f.store.Hydrate())

		unbind := f.gate.Bind(context.Background())
		defer unbind()

		require.Equal(t, gate.StateUnknown, f.gate.State())

		f.live.set(true)

		assert.Equal(t, gate.StateAuthenticated, f.gate.State())
	})

	t.Run("logout routes to sign-in", func(t *testing.T) {
		f := newFixture(t, "tok")
		require.NoError(t, f.store.Hydrate())

		unbind := f.gate.Bind(context.Background())
		defer unbind()

		require.Equal(t, gate.StateAuthenticated, f.gate.State())

		f.store.Clear()

		assert.Equal(t, gate.StateUnauthenticated, f.gate.State())
	})

	t.Run("subscribers see transitions", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.store.Hydrate())

		var states []gate.State
		f.gate.Subscribe(func(s gate.State) { states = append(states, s) })

		unbind := f.gate.Bind(context.Background())
		defer unbind()

		f.store.SetToken("tok")

		assert.Equal(t, []gate.State{gate.StateUnauthenticated, gate.StateAuthenticated}, states)
	})
}
