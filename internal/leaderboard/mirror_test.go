package leaderboard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/quizleaderboard/internal/leaderboard"
)

func TestMemoryMirrorInitialize(t *testing.T) {
	m := leaderboard.NewMemoryMirror()
	ctx := context.Background()

	added, err := m.Initialize(ctx, "q1", "alice")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.Initialize(ctx, "q1", "alice")
	require.NoError(t, err)
	assert.False(t, added, "re-initializing an existing member reports added=false")
}

func TestMemoryMirrorIncrement(t *testing.T) {
	m := leaderboard.NewMemoryMirror()
	ctx := context.Background()

	newScore, err := m.Increment(ctx, "q1", "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), newScore)

	newScore, err = m.Increment(ctx, "q1", "alice", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(8), newScore)
}

func TestMemoryMirrorTopNOrdersByScoreThenUserID(t *testing.T) {
	m := leaderboard.NewMemoryMirror()
	ctx := context.Background()

	_, _ = m.Increment(ctx, "q1", "bob", 5)
	_, _ = m.Increment(ctx, "q1", "alice", 5)
	_, _ = m.Increment(ctx, "q1", "carol", 9)

	entries, err := m.TopN(ctx, "q1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "carol", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", entries[1].UserID, "ties break by user id ascending")
	assert.Equal(t, "bob", entries[2].UserID)
}

func TestMemoryMirrorTopNTruncates(t *testing.T) {
	m := leaderboard.NewMemoryMirror()
	ctx := context.Background()
	for _, u := range []string{"a", "b", "c", "d"} {
		_, _ = m.Increment(ctx, "q1", u, 1)
	}

	entries, err := m.TopN(ctx, "q1", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemoryMirrorScoreAndRank(t *testing.T) {
	m := leaderboard.NewMemoryMirror()
	ctx := context.Background()

	_, ok, err := m.Score(ctx, "q1", "alice")
	require.NoError(t, err)
	assert.False(t, ok, "unknown member reports ok=false")

	_, _ = m.Increment(ctx, "q1", "alice", 7)
	score, ok, err := m.Score(ctx, "q1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), score)

	rank, ok, err := m.Rank(ctx, "q1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rank)
}

func TestMemoryMirrorSizeRemoveDelete(t *testing.T) {
	m := leaderboard.NewMemoryMirror()
	ctx := context.Background()
	_, _ = m.Increment(ctx, "q1", "alice", 1)
	_, _ = m.Increment(ctx, "q1", "bob", 1)

	size, err := m.Size(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	require.NoError(t, m.Remove(ctx, "q1", "alice"))
	size, _ = m.Size(ctx, "q1")
	assert.Equal(t, int64(1), size)

	require.NoError(t, m.Delete(ctx, "q1"))
	size, _ = m.Size(ctx, "q1")
	assert.Equal(t, int64(0), size)
}
