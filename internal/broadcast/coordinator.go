// Package broadcast implements the coordinator that is the only
// component authorized to emit LEADERBOARD_UPDATE frames. It subscribes
// to the event bus and, on every event, re-reads top-n from the store
// and fans the result out to local room subscribers only.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/terminal-bench/quizleaderboard/internal/leaderboard"
	"github.com/terminal-bench/quizleaderboard/internal/logging"
	"github.com/terminal-bench/quizleaderboard/internal/protocol"
	"github.com/terminal-bench/quizleaderboard/pkg/eventbus"
)

// Subscriber is the subset of eventbus.Client the coordinator depends on.
type Subscriber interface {
	Subscribe(ctx context.Context, handler eventbus.Handler) error
}

// RoomSender delivers a raw frame to every local session subscribed to a
// quiz's room. Defined here rather than imported from the gateway package
// so broadcast has no dependency on connection/transport details.
type RoomSender interface {
	BroadcastToRoom(quizID string, payload []byte)
}

// Coordinator wires an event bus subscription to room fan-out.
type Coordinator struct {
	bus    Subscriber
	store  leaderboard.Backend
	sender RoomSender
	topN   int

	mu      sync.Mutex
	pending map[string]bool // quiz -> a redraw is in flight
}

func NewCoordinator(bus Subscriber, store leaderboard.Backend, sender RoomSender, topN int) *Coordinator {
	return &Coordinator{
		bus:     bus,
		store:   store,
		sender:  sender,
		topN:    topN,
		pending: make(map[string]bool),
	}
}

// Start subscribes to the event bus. Each event triggers a redraw of its
// quiz; redraws for the same quiz already in flight are coalesced, since
// one read suffices for any number of events that arrive while it runs.
func (c *Coordinator) Start(ctx context.Context) error {
	return c.bus.Subscribe(ctx, func(e eventbus.Event) {
		c.onEvent(ctx, e.QuizID)
	})
}

func (c *Coordinator) onEvent(ctx context.Context, quizID string) {
	c.mu.Lock()
	if c.pending[quizID] {
		c.mu.Unlock()
		return
	}
	c.pending[quizID] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.pending, quizID)
			c.mu.Unlock()
		}()
		c.redraw(ctx, quizID)
	}()
}

func (c *Coordinator) redraw(ctx context.Context, quizID string) {
	entries, err := c.store.TopN(ctx, quizID, c.topN)
	if err != nil {
		logging.Warnf("broadcast redraw for quiz %s: top-n failed: %v", quizID, err)
		return
	}

	protoEntries := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		protoEntries = append(protoEntries, protocol.LeaderboardEntry{
			UserID: e.UserID,
			Score:  e.Score,
			Rank:   e.Rank,
		})
	}
	update := protocol.NewLeaderboardUpdate(quizID, protoEntries)
	payload, err := json.Marshal(update)
	if err != nil {
		logging.Errorf("broadcast redraw for quiz %s: marshal failed: %v", quizID, err)
		return
	}
	c.sender.BroadcastToRoom(quizID, payload)
}
