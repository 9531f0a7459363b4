package leaderboard

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend over Redis sorted sets, which give
// O(log N) insert/increment/rank and O(log N + n) range queries without
// any custom ordered structure: ZADD/ZINCRBY/ZREVRANGE/ZREVRANK are
// exactly that, backed by Redis's skiplist representation.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend wraps an existing Redis connection. The connection is
// shared with the eventbus.Client and the Resilience Gate's prober so the
// whole instance makes do with one Redis client.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Initialize(ctx context.Context, quiz, user string) (bool, error) {
	added, err := b.rdb.ZAddArgs(ctx, Key(quiz), redis.ZAddArgs{
		NX:      true,
		Members: []redis.Z{{Score: 0, Member: user}},
	}).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (b *RedisBackend) Increment(ctx context.Context, quiz, user string, delta int64) (int64, error) {
	newScore, err := b.rdb.ZIncrBy(ctx, Key(quiz), float64(delta), user).Result()
	if err != nil {
		return 0, err
	}
	return int64(newScore), nil
}

func (b *RedisBackend) TopN(ctx context.Context, quiz string, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, Key(quiz), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		entries = append(entries, Entry{
			UserID: z.Member.(string),
			Score:  int64(z.Score),
			Rank:   i + 1,
		})
	}
	return entries, nil
}

func (b *RedisBackend) Score(ctx context.Context, quiz, user string) (int64, bool, error) {
	score, err := b.rdb.ZScore(ctx, Key(quiz), user).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int64(score), true, nil
}

func (b *RedisBackend) Rank(ctx context.Context, quiz, user string) (int, bool, error) {
	rank, err := b.rdb.ZRevRank(ctx, Key(quiz), user).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int(rank) + 1, true, nil
}

func (b *RedisBackend) Size(ctx context.Context, quiz string) (int64, error) {
	return b.rdb.ZCard(ctx, Key(quiz)).Result()
}

func (b *RedisBackend) Remove(ctx context.Context, quiz, user string) error {
	return b.rdb.ZRem(ctx, Key(quiz), user).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, quiz string) error {
	return b.rdb.Del(ctx, Key(quiz)).Err()
}

// Ping is the liveness check the resilience gate's prober runs.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
