// Package gate reconciles the persisted session, backend liveness, and
// the backend's own view of the token into a single routing decision:
// whether the user may enter the authenticated area or must sign in.
package gate

import (
	"context"
	"sync"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"github.com/nurl-sh/nurl-cli/internal/session"
	"go.uber.org/zap"
)

// State is the gate's routing decision.
type State int

const (
	// StateUnknown blocks any decision until persisted state is loaded.
	StateUnknown State = iota
	// StateUnauthenticated routes to sign-in.
	StateUnauthenticated
	// StateAuthenticated routes to the main application.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionSource is the slice of the token store the gate consumes.
type SessionSource interface {
	Get() session.Session
	SetToken(token string)
	Subscribe(fn func(session.Session)) func()
}

// Liveness is the slice of the monitor the gate consumes.
type Liveness interface {
	Alive() bool
	Subscribe(fn func(bool)) func()
}

// AuthChecker validates the current token against the backend.
type AuthChecker interface {
	CheckAuth(ctx context.Context) api.Result[struct{}]
}

// Gate is the session gate state machine.
type Gate struct {
	session SessionSource
	live    Liveness
	checker AuthChecker
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	nextSub int
	subs    map[int]func(State)
}

// New creates a gate in the unknown state. Call Bind to start reacting
// to session and liveness changes, or Evaluate to apply the transition
// rule once.
func New(sess SessionSource, live Liveness, checker AuthChecker, logger *zap.Logger) *Gate {
	return &Gate{
		session: sess,
		live:    live,
		checker: checker,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}
}

// Bind subscribes the gate to its inputs so every hydration, token or
// reachability change re-evaluates the transition rule, then evaluates
// once for the current inputs. Returns an unbind function.
func (g *Gate) Bind(ctx context.Context) func() {
	unsubSession := g.session.Subscribe(func(session.Session) {
		g.Evaluate(ctx)
	})
	unsubLive := g.live.Subscribe(func(bool) {
		g.Evaluate(ctx)
	})

	g.Evaluate(ctx)

	return func() {
		unsubSession()
		unsubLive()
	}
}

// Evaluate applies the transition rule once and returns the resulting
// state.
func (g *Gate) Evaluate(ctx context.Context) State {
	sess := g.session.Get()
	if !sess.Hydrated {
		return g.setState(StateUnknown)
	}

	if !g.live.Alive() {
		// No decision while the backend is unreachable: a previously
		// authenticated session is preserved rather than downgraded, so
		// a transient outage causes no redirect.
		return g.State()
	}

	if sess.Token == "" {
		return g.setState(StateUnauthenticated)
	}

	res := g.checker.CheckAuth(ctx)
	if res.OK() {
		return g.setState(StateAuthenticated)
	}

	if res.Status == 0 {
		// The check never reached the backend. That is a transport
		// failure, not a rejection; keep the prior state.
		return g.State()
	}

	g.logger.Info("stored session rejected by backend", zap.Int("status", res.Status))
	g.session.SetToken("")

	return g.setState(StateUnauthenticated)
}

// State returns the current routing decision.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

// Subscribe registers fn to run on every state transition. Returns an
// unsubscribe function.
func (g *Gate) Subscribe(fn func(State)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()

		delete(g.subs, id)
	}
}

func (g *Gate) setState(next State) State {
	g.mu.Lock()
	if next == g.state {
		g.mu.Unlock()
		return next
	}

	prev := g.state
	g.state = next

	subs := make([]func(State), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()

	g.logger.Info("session state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)

	for _, fn := range subs {
		fn(next)
	}

	return next
}
