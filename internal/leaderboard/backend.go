// Package leaderboard implements the leaderboard store: an ordered set
// keyed by quiz, member = user id, score = integer, every operation
// passed through a resilience gate before it falls back to a
// per-instance in-memory mirror.
package leaderboard

import "context"

// Entry is one row of a top-n / member-lookup result.
type Entry struct {
	UserID string
	Score  int64
	Rank   int // 1-based
}

// Backend is the set of operations a leaderboard store exposes,
// implemented once against the shared datastore (RedisBackend) and once
// against a per-instance fallback mirror (MemoryMirror). Store picks
// between them per call via a resilience gate.
type Backend interface {
	// Initialize adds the member with score 0 only if absent; added
	// reports whether this call created the entry.
	Initialize(ctx context.Context, quiz, user string) (added bool, err error)
	// Increment atomically adds delta (>= 0) to the member's score,
	// creating it at score=delta if absent, and returns the new score.
	Increment(ctx context.Context, quiz, user string, delta int64) (newScore int64, err error)
	// TopN returns up to n entries ordered by score descending with
	// 1-based ranks; an empty quiz returns an empty, non-nil slice.
	TopN(ctx context.Context, quiz string, n int) ([]Entry, error)
	Score(ctx context.Context, quiz, user string) (score int64, ok bool, err error)
	Rank(ctx context.Context, quiz, user string) (rank int, ok bool, err error)
	Size(ctx context.Context, quiz string) (int64, error)
	Remove(ctx context.Context, quiz, user string) error
	Delete(ctx context.Context, quiz string) error
}

// Key returns the shared-datastore key for a quiz's leaderboard:
// quiz:{quizId}:leaderboard.
func Key(quizID string) string {
	return "quiz:" + quizID + ":leaderboard"
}
