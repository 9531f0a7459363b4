package broadcast_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/quizleaderboard/internal/broadcast"
	"github.com/terminal-bench/quizleaderboard/internal/leaderboard"
	"github.com/terminal-bench/quizleaderboard/internal/protocol"
	"github.com/terminal-bench/quizleaderboard/pkg/eventbus"
)

type fakeSubscriber struct {
	handler eventbus.Handler
}

func (f *fakeSubscriber) Subscribe(_ context.Context, handler eventbus.Handler) error {
	f.handler = handler
	return nil
}

func (f *fakeSubscriber) emit(e eventbus.Event) {
	f.handler(e)
}

type fakeBackend struct {
	mu      sync.Mutex
	reads   int
	entries []leaderboard.Entry
}

func (f *fakeBackend) Initialize(context.Context, string, string) (bool, error) { return false, nil }
func (f *fakeBackend) Increment(context.Context, string, string, int64) (int64, error) {
	return 0, nil
}
func (f *fakeBackend) TopN(context.Context, string, int) ([]leaderboard.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.entries, nil
}
func (f *fakeBackend) Score(context.Context, string, string) (int64, bool, error) {
	return 0, false, nil
}
func (f *fakeBackend) Rank(context.Context, string, string) (int, bool, error) {
	return 0, false, nil
}
func (f *fakeBackend) Size(context.Context, string) (int64, error)  { return 0, nil }
func (f *fakeBackend) Remove(context.Context, string, string) error { return nil }
func (f *fakeBackend) Delete(context.Context, string) error         { return nil }

type fakeSender struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeSender) BroadcastToRoom(_ string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestCoordinatorRedrawsOnEvent(t *testing.T) {
	sub := &fakeSubscriber{}
	backend := &fakeBackend{entries: []leaderboard.Entry{{UserID: "alice", Score: 5, Rank: 1}}}
	sender := &fakeSender{}

	c := broadcast.NewCoordinator(sub, backend, sender, 10)
	require.NoError(t, c.Start(context.Background()))

	sub.emit(eventbus.NewScoreUpdated("q1", "alice", 5, "instance-1"))

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)

	var update protocol.LeaderboardUpdate
	require.NoError(t, json.Unmarshal(sender.payloads[0], &update))
	assert.Equal(t, "q1", update.QuizID)
	assert.Equal(t, "alice", update.Leaderboard[0].UserID)
}

func TestCoordinatorCoalescesConcurrentEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	backend := &fakeBackend{entries: []leaderboard.Entry{{UserID: "alice", Score: 5, Rank: 1}}}
	sender := &fakeSender{}

	c := broadcast.NewCoordinator(sub, backend, sender, 10)
	require.NoError(t, c.Start(context.Background()))

	for i := 0; i < 2; i++ {
		sub.emit(eventbus.NewScoreUpdated("q1", "alice", 5, "instance-1"))
	}

	require.Eventually(t, func() bool { return sender.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, sender.count(), 2, "duplicated events cause at most one additional redraw")
}
