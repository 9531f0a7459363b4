// Package resilience wires the sliding-window circuit breaker (pkg/circuit)
// to the shared datastore and its liveness prober, giving the leaderboard
// store a single place to ask "should I call Redis or fall back to the
// mirror right now". The Gate owns no leaderboard-shaped state itself —
// the in-memory mirror lives with the leaderboard store, since it is the
// store's operations that must be replayable against it.
package resilience

import (
	"context"
	"time"

	"github.com/terminal-bench/quizleaderboard/pkg/circuit"
)

// Config configures the Gate's breaker, probe cadence, and per-call
// timeout.
type Config struct {
	FailureRateThreshold float64
	WindowSize           int
	MinCalls             int
	OpenDuration         time.Duration
	HalfOpenProbes       int
	HealthCheckInterval  time.Duration
	CallTimeout          time.Duration
	OnStateChange        func(from, to circuit.State)
}

// Gate is a circuit breaker plus a periodic health prober deciding, per
// call, whether the shared backend or the fallback mirror should serve a
// leaderboard store operation.
type Gate struct {
	breaker     *circuit.Breaker
	prober      *circuit.Prober
	callTimeout time.Duration
}

// New constructs a Gate. ping is the liveness check the prober runs on
// cfg.HealthCheckInterval — typically a Redis PING.
func New(cfg Config, ping func(ctx context.Context) error) *Gate {
	breaker := circuit.NewBreaker(circuit.Config{
		WindowSize:       cfg.WindowSize,
		MinCalls:         cfg.MinCalls,
		FailureThreshold: cfg.FailureRateThreshold,
		OpenDuration:     cfg.OpenDuration,
		HalfOpenProbes:   cfg.HalfOpenProbes,
		OnStateChange:    cfg.OnStateChange,
	})

	g := &Gate{
		breaker:     breaker,
		callTimeout: cfg.CallTimeout,
	}
	if ping != nil && cfg.HealthCheckInterval > 0 {
		g.prober = circuit.NewProber(breaker, cfg.HealthCheckInterval, 2, ping)
	}
	return g
}

// Start launches the liveness prober. Safe to call even if no prober was
// configured.
func (g *Gate) Start(ctx context.Context) {
	if g.prober != nil {
		g.prober.Start(ctx)
	}
}

// Stop halts the liveness prober and waits for it to exit.
func (g *Gate) Stop() {
	if g.prober != nil {
		g.prober.Stop()
	}
}

// Allow reports whether a backend call should be attempted. Call Record
// with its outcome exactly once per Allow()==true.
func (g *Gate) Allow() bool {
	return g.breaker.Allow()
}

// Record reports the outcome of a backend attempt that Allow() admitted.
func (g *Gate) Record(err error) {
	g.breaker.Record(err)
}

// CallTimeout returns the per-call timeout every backend call must be
// bounded by.
func (g *Gate) CallTimeout() time.Duration {
	return g.callTimeout
}

// State returns the breaker's current state.
func (g *Gate) State() circuit.State {
	return g.breaker.State()
}

// Snapshot exposes breaker window occupancy for the health route.
func (g *Gate) Snapshot() circuit.Snapshot {
	return g.breaker.Snapshot()
}
