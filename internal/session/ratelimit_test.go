package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terminal-bench/quizleaderboard/internal/session"
)

func TestRateLimiterAllowsUpToCapacity(t *testing.T) {
	rl := session.NewRateLimiter(10, 5, time.Second)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.TryConsume("sess-1"), "token %d should be allowed", i)
	}
	assert.False(t, rl.TryConsume("sess-1"), "the 11th message in the same instant must be rejected")
}

func TestRateLimiterRefills(t *testing.T) {
	rl := session.NewRateLimiter(2, 2, 50*time.Millisecond)

	assert.True(t, rl.TryConsume("sess-1"))
	assert.True(t, rl.TryConsume("sess-1"))
	assert.False(t, rl.TryConsume("sess-1"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.TryConsume("sess-1"))
}

func TestRateLimiterIsPerSession(t *testing.T) {
	rl := session.NewRateLimiter(1, 1, time.Second)

	assert.True(t, rl.TryConsume("sess-1"))
	assert.True(t, rl.TryConsume("sess-2"), "a different session has its own bucket")
}

func TestRateLimiterForget(t *testing.T) {
	rl := session.NewRateLimiter(1, 1, time.Second)
	rl.TryConsume("sess-1")
	rl.Forget("sess-1")

	assert.True(t, rl.TryConsume("sess-1"), "a fresh bucket is allocated after Forget")
}

func TestRateLimiterFailsOpenWhenNil(t *testing.T) {
	var rl *session.RateLimiter
	assert.True(t, rl.TryConsume("sess-1"))
}
