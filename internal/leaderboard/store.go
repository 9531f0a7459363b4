package leaderboard

import (
	"context"

	"github.com/terminal-bench/quizleaderboard/internal/logging"
	"github.com/terminal-bench/quizleaderboard/internal/resilience"
)

// Store is the leaderboard store as actually wired: every operation asks
// the resilience gate whether the shared backend should be attempted,
// attempts it under the gate's call timeout, records the outcome, and
// transparently falls back to the in-memory mirror on either a
// short-circuited breaker or a backend error, never surfacing the
// failure to the caller. Store itself implements Backend so the quiz
// service and broadcast coordinator can depend on the interface without
// knowing resilience is involved at all.
type Store struct {
	gate   *resilience.Gate
	redis  *RedisBackend
	mirror *MemoryMirror
}

// NewStore wires a gate, a redis-backed implementation, and an
// in-memory fallback into a single Backend.
func NewStore(gate *resilience.Gate, redis *RedisBackend, mirror *MemoryMirror) *Store {
	return &Store{gate: gate, redis: redis, mirror: mirror}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.gate.CallTimeout() <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.gate.CallTimeout())
}

func (s *Store) Initialize(ctx context.Context, quiz, user string) (bool, error) {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		added, err := s.redis.Initialize(cctx, quiz, user)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return added, nil
		}
		logging.Warnf("leaderboard initialize falling back to mirror: %v", err)
	}
	return s.mirror.Initialize(ctx, quiz, user)
}

func (s *Store) Increment(ctx context.Context, quiz, user string, delta int64) (int64, error) {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		newScore, err := s.redis.Increment(cctx, quiz, user, delta)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return newScore, nil
		}
		logging.Warnf("leaderboard increment falling back to mirror: %v", err)
	}
	return s.mirror.Increment(ctx, quiz, user, delta)
}

func (s *Store) TopN(ctx context.Context, quiz string, n int) ([]Entry, error) {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		entries, err := s.redis.TopN(cctx, quiz, n)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return entries, nil
		}
		logging.Warnf("leaderboard top-n falling back to mirror: %v", err)
	}
	return s.mirror.TopN(ctx, quiz, n)
}

func (s *Store) Score(ctx context.Context, quiz, user string) (int64, bool, error) {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		score, ok, err := s.redis.Score(cctx, quiz, user)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return score, ok, nil
		}
		logging.Warnf("leaderboard score falling back to mirror: %v", err)
	}
	return s.mirror.Score(ctx, quiz, user)
}

func (s *Store) Rank(ctx context.Context, quiz, user string) (int, bool, error) {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		rank, ok, err := s.redis.Rank(cctx, quiz, user)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return rank, ok, nil
		}
		logging.Warnf("leaderboard rank falling back to mirror: %v", err)
	}
	return s.mirror.Rank(ctx, quiz, user)
}

func (s *Store) Size(ctx context.Context, quiz string) (int64, error) {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		size, err := s.redis.Size(cctx, quiz)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return size, nil
		}
		logging.Warnf("leaderboard size falling back to mirror: %v", err)
	}
	return s.mirror.Size(ctx, quiz)
}

func (s *Store) Remove(ctx context.Context, quiz, user string) error {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		err := s.redis.Remove(cctx, quiz, user)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return nil
		}
		logging.Warnf("leaderboard remove falling back to mirror: %v", err)
	}
	return s.mirror.Remove(ctx, quiz, user)
}

func (s *Store) Delete(ctx context.Context, quiz string) error {
	if s.gate.Allow() {
		cctx, cancel := s.withTimeout(ctx)
		err := s.redis.Delete(cctx, quiz)
		cancel()
		s.gate.Record(err)
		if err == nil {
			return nil
		}
		logging.Warnf("leaderboard delete falling back to mirror: %v", err)
	}
	return s.mirror.Delete(ctx, quiz)
}

var _ Backend = (*Store)(nil)
