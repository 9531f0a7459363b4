package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terminal-bench/quizleaderboard/internal/session"
)

func TestManagerInvokesOnStaleExtraAfterCleanup(t *testing.T) {
	var mu sync.Mutex
	var notified []string

	m := session.NewManager(20*time.Millisecond, 10*time.Millisecond, 10, 5, time.Second, func(s string) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, s)
	})

	m.Registry.Associate("sess-1", "alice")
	m.Heartbeat.Record("sess-1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1 && notified[0] == "sess-1"
	}, time.Second, 5*time.Millisecond)

	_, ok := m.Registry.UserOf("sess-1")
	assert.False(t, ok, "cleanup must run before the extra callback fires")
}

func TestManagerSetOnStaleWiresACallbackConstructedAfterTheManager(t *testing.T) {
	var mu sync.Mutex
	var notified []string

	m := session.NewManager(20*time.Millisecond, 10*time.Millisecond, 10, 5, time.Second, nil)
	m.SetOnStale(func(s string) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, s)
	})
	m.Heartbeat.Record("sess-1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1 && notified[0] == "sess-1"
	}, time.Second, 5*time.Millisecond)
}
