// Package liveness polls the backend health endpoint on a fixed
// interval and exposes the last observed reachability.
package liveness

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Checker performs a single health probe. Any transport failure counts
// as down.
type Checker interface {
	Health(ctx context.Context) bool
}

// Monitor polls a Checker on a fixed interval. The reachability flag is
// not monotonic: the backend can flap, and every tick may flip it.
type Monitor struct {
	checker  Checker
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	alive   bool
	started bool
	stopped bool
	cancel  context.CancelFunc
	nextSub int
	subs    map[int]func(bool)
}

// NewMonitor creates a monitor polling checker every interval. The flag
// starts optimistic (alive) until the first probe lands, so consumers
// are not blocked before anything is known.
func NewMonitor(checker Checker, interval time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		checker:  checker,
		interval: interval,
		logger:   logger,
		alive:    true,
		subs:     make(map[int]func(bool)),
	}
}

// Start performs an immediate probe, then probes on every interval tick
// until Stop. Ticks are interval-based, not request-chained: a slow
// probe never delays the next tick, and each probe runs under its own
// deadline.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return
	}

	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	m.setAlive(m.checker.Health(probeCtx))
}

// CheckNow runs a single synchronous probe and returns the result. Used
// by one-shot commands that cannot wait for the polling schedule.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	alive := m.checker.Health(ctx)
	m.setAlive(alive)

	return alive
}

// Alive returns the last observed reachability.
func (m *Monitor) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.alive
}

// Subscribe registers fn to run whenever reachability changes. Returns
// an unsubscribe function.
func (m *Monitor) Subscribe(fn func(bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.subs, id)
	}
}

// Stop cancels the polling schedule. No probe result is applied and no
// subscriber runs after Stop returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *Monitor) setAlive(alive bool) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}

	changed := alive != m.alive
	m.alive = alive

	var subs []func(bool)
	if changed {
		subs = make([]func(bool), 0, len(m.subs))
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Info("backend reachability changed", zap.Bool("alive", alive))

	for _, fn := range subs {
		fn(alive)
	}
}
