package eventbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/quizleaderboard/pkg/eventbus"
)

func newTestClient(t *testing.T) *eventbus.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return eventbus.NewClient(rdb)
}

func TestPublishAndSubscribeRoundTrip(t *testing.T) {
	client := newTestClient(t)

	var mu sync.Mutex
	var received []eventbus.Event

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, client.Subscribe(ctx, func(e eventbus.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	}))

	event := eventbus.NewUserJoined("q1", "alice", "instance-1")
	require.NoError(t, client.Publish(ctx, event))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, eventbus.KindUserJoined, received[0].Kind)
	assert.Equal(t, "q1", received[0].QuizID)
}

func TestChannelNaming(t *testing.T) {
	assert.Equal(t, "quiz:q1:events", eventbus.Channel("q1"))
}

func TestSubscribeOnlyOncePerClient(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, client.Subscribe(ctx, func(eventbus.Event) {}))
	assert.Error(t, client.Subscribe(ctx, func(eventbus.Event) {}))
	require.NoError(t, client.Close())
}
