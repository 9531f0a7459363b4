package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terminal-bench/quizleaderboard/internal/resilience"
	"github.com/terminal-bench/quizleaderboard/pkg/circuit"
)

func TestGateAllowsByDefault(t *testing.T) {
	g := resilience.New(resilience.Config{
		FailureRateThreshold: 0.5,
		WindowSize:           10,
		MinCalls:             5,
		OpenDuration:         time.Second,
		HalfOpenProbes:       3,
		CallTimeout:          time.Second,
	}, nil)

	assert.True(t, g.Allow())
	assert.Equal(t, circuit.StateClosed, g.State())
}

func TestGateOpensAfterFailures(t *testing.T) {
	g := resilience.New(resilience.Config{
		FailureRateThreshold: 0.5,
		WindowSize:           10,
		MinCalls:             1,
		OpenDuration:         time.Hour,
		HalfOpenProbes:       3,
		CallTimeout:          time.Second,
	}, nil)

	g.Allow()
	g.Record(errors.New("boom"))

	assert.Equal(t, circuit.StateOpen, g.State())
	assert.False(t, g.Allow())
}

func TestGateProberForcesRecovery(t *testing.T) {
	var healthy bool
	g := resilience.New(resilience.Config{
		FailureRateThreshold:      0.5,
		WindowSize:                10,
		MinCalls:                  1,
		OpenDuration:              time.Hour,
		HalfOpenProbes:            3,
		HealthCheckInterval:       10 * time.Millisecond,
		CallTimeout:               time.Second,
	}, func(ctx context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("still down")
	})

	g.Allow()
	g.Record(errors.New("boom"))
	assert.Equal(t, circuit.StateOpen, g.State())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)
	defer g.Stop()

	healthy = true
	assert.Eventually(t, func() bool {
		return g.State() == circuit.StateHalfOpen
	}, time.Second, 5*time.Millisecond)
}

func TestGateSnapshot(t *testing.T) {
	g := resilience.New(resilience.Config{
		FailureRateThreshold: 0.5,
		WindowSize:           10,
		MinCalls:             5,
		OpenDuration:         time.Second,
		HalfOpenProbes:       3,
		CallTimeout:          time.Second,
	}, nil)

	g.Allow()
	g.Record(nil)
	g.Allow()
	g.Record(errors.New("boom"))

	snap := g.Snapshot()
	assert.Equal(t, 2, snap.WindowTotal)
	assert.Equal(t, 1, snap.WindowFailures)
}
