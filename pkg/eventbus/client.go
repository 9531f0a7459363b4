package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Handler processes one decoded Event. An instance receives its own
// published events — Handler has no way to distinguish them, by design.
type Handler func(Event)

// Client publishes typed events to a per-quiz channel and subscribes with
// a wildcard pattern covering every quiz channel. It wraps a Redis
// connection with the same subscription bookkeeping a pub/sub client
// needs regardless of broker, since the shared backend here is the same
// Redis instance the Leaderboard Store uses.
type Client struct {
	rdb *redis.Client

	mu  sync.Mutex
	sub *redis.PubSub
}

// NewClient wraps an existing Redis connection. The Leaderboard Store and
// the Event Bus Adapter share one *redis.Client; Publish and Subscribe
// call it directly and do not pass through the resilience gate or its
// per-call timeout.
func NewClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Publish publishes an event to its quiz's channel. Publish failures are
// logged by the caller and dropped — the next user action produces
// another event, and the Coordinator is a re-reader, not a replayer.
func (c *Client) Publish(ctx context.Context, event Event) error {
	payload, err := marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return c.rdb.Publish(ctx, Channel(event.QuizID), payload).Err()
}

// Subscribe subscribes to every quiz's event channel via PSUBSCRIBE and
// delivers decoded events to handler until ctx is cancelled or Close is
// called. Only one subscription loop runs per Client — the Broadcast
// Coordinator is the single registered consumer.
func (c *Client) Subscribe(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	if c.sub != nil {
		c.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	sub := c.rdb.PSubscribe(ctx, WildcardPattern)
	c.sub = sub
	c.mu.Unlock()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				event, err := unmarshal([]byte(msg.Payload))
				if err != nil {
					continue
				}
				handler(event)
			}
		}
	}()

	return nil
}

// Close unsubscribes and releases the subscription handle. It does not
// close the underlying *redis.Client, which the Leaderboard Store may
// still be using.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return nil
	}
	err := c.sub.Close()
	c.sub = nil
	return err
}
