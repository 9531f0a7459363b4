package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// MemoryMirror is a per-instance copy of leaderboard state used only
// while the shared datastore is unavailable. It implements the same
// Backend interface as RedisBackend so Store can swap between them
// without the caller noticing, at the cost of O(n log n) TopN instead of
// O(log N + n) — a degraded mode, not the happy path.
//
// Mirror contents are created lazily on first fallback write and are
// never flushed back to the shared datastore on recovery: the shared
// backend is the source of truth once the breaker closes again.
type MemoryMirror struct {
	mu   sync.Mutex
	data map[string]map[string]int64 // quiz -> user -> score
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{data: make(map[string]map[string]int64)}
}

func (m *MemoryMirror) quizLocked(quiz string) map[string]int64 {
	q, ok := m.data[quiz]
	if !ok {
		q = make(map[string]int64)
		m.data[quiz] = q
	}
	return q
}

func (m *MemoryMirror) Initialize(_ context.Context, quiz, user string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.quizLocked(quiz)
	if _, ok := q[user]; ok {
		return false, nil
	}
	q[user] = 0
	return true, nil
}

func (m *MemoryMirror) Increment(_ context.Context, quiz, user string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.quizLocked(quiz)
	q[user] += delta
	return q[user], nil
}

func (m *MemoryMirror) TopN(_ context.Context, quiz string, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.data[quiz]
	entries := make([]Entry, 0, len(q))
	for user, score := range q {
		entries = append(entries, Entry{UserID: user, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (m *MemoryMirror) Score(_ context.Context, quiz, user string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.data[quiz]
	if !ok {
		return 0, false, nil
	}
	score, ok := q[user]
	return score, ok, nil
}

func (m *MemoryMirror) Rank(ctx context.Context, quiz, user string) (int, bool, error) {
	entries, err := m.TopN(ctx, quiz, -1)
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.UserID == user {
			return e.Rank, true, nil
		}
	}
	return 0, false, nil
}

func (m *MemoryMirror) Size(_ context.Context, quiz string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.data[quiz])), nil
}

func (m *MemoryMirror) Remove(_ context.Context, quiz, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[quiz], user)
	return nil
}

func (m *MemoryMirror) Delete(_ context.Context, quiz string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, quiz)
	return nil
}
