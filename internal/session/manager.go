package session

import (
	"context"
	"sync"
	"time"
)

// Manager composes the Registry, HeartbeatMonitor, and RateLimiter behind
// a single Cleanup path so disconnect and sweep always tear a session
// down identically: removed from registry, room, heartbeat, and limiter,
// idempotently.
type Manager struct {
	Registry  *Registry
	Heartbeat *HeartbeatMonitor
	Limiter   *RateLimiter

	mu           sync.Mutex
	onStaleExtra func(session string)
}

// NewManager wires the three local-state components from config-derived
// durations. onStaleExtra, if non-nil, is invoked after cleanup for a
// session the heartbeat sweep found stale (used by the gateway to close
// the underlying connection). Pass nil here and call SetOnStale later
// if the callback's target isn't constructed yet.
func NewManager(staleAfter, sweepInterval time.Duration, capacity, refillTokens int, refillPeriod time.Duration, onStaleExtra func(session string)) *Manager {
	m := &Manager{
		Registry:     NewRegistry(),
		Limiter:      NewRateLimiter(capacity, refillTokens, refillPeriod),
		onStaleExtra: onStaleExtra,
	}
	m.Heartbeat = NewHeartbeatMonitor(staleAfter, sweepInterval, func(session string) {
		m.Cleanup(session)
		m.mu.Lock()
		extra := m.onStaleExtra
		m.mu.Unlock()
		if extra != nil {
			extra(session)
		}
	})
	return m
}

// SetOnStale sets (or replaces) the callback invoked after cleanup for a
// session the heartbeat sweep found stale. Call this once the callback's
// target exists, for components (like the gateway) that are constructed
// after the manager itself and depend on it.
func (m *Manager) SetOnStale(onStaleExtra func(session string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStaleExtra = onStaleExtra
}

// Start launches the heartbeat sweep.
func (m *Manager) Start(ctx context.Context) {
	m.Heartbeat.Start(ctx)
}

// Stop halts the heartbeat sweep.
func (m *Manager) Stop() {
	m.Heartbeat.Stop()
}

// Cleanup removes session from every local-state map: registry, room,
// heartbeat, limiter. Idempotent and tolerant of partial prior state,
// safe under any interleaving with a concurrent sweep.
func (m *Manager) Cleanup(session string) {
	m.Registry.Cleanup(session)
	m.Heartbeat.Forget(session)
	m.Limiter.Forget(session)
}
