package matchmaking

import (
	"fmt"
	"testing"
	"time"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fillQueue(q *Queue, n int, now time.Time) []*models.Player {
	players := make([]*models.Player, n)
	for i := 0; i < n; i++ {
		players[i] = q.Enqueue(models.EnqueueRequest{PlayerName: fmt.Sprintf("player%d", i)}, now)
	}
	return players
}

func ids(players []models.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func TestQueue_EnqueueAssignsUniqueIDs(t *testing.T) {
	q := NewQueue()

	// 같은 이름도 별도 슬롯을 차지한다
	a := q.Enqueue(models.EnqueueRequest{PlayerName: "neo", Region: "eu", GameMode: "5v5"}, baseTime)
	b := q.Enqueue(models.EnqueueRequest{PlayerName: "neo"}, baseTime)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, "eu", a.Region)
	assert.Equal(t, "5v5", a.GameMode)
	assert.Equal(t, baseTime, a.JoinedAt)
	assert.Equal(t, 1, q.Position(a.ID))
	assert.Equal(t, 2, q.Position(b.ID))
}

func TestQueue_CancelPrefersID(t *testing.T) {
	q := NewQueue()
	first := q.Enqueue(models.EnqueueRequest{PlayerName: "alice"}, baseTime)
	second := q.Enqueue(models.EnqueueRequest{PlayerName: "bob"}, baseTime)
	third := q.Enqueue(models.EnqueueRequest{PlayerName: "alice"}, baseTime)

	removed, ok := q.Cancel(third.ID)
	require.True(t, ok)
	assert.Equal(t, third.ID, removed.ID)

	// 이름으로 취소하면 첫 번째 항목이 제거된다
	removed, ok = q.Cancel("alice")
	require.True(t, ok)
	assert.Equal(t, first.ID, removed.ID)

	assert.Equal(t, []string{second.ID}, ids(q.Snapshot()))

	_, ok = q.Cancel("nobody")
	assert.False(t, ok)
	_, ok = q.Cancel("")
	assert.False(t, ok)
}

func TestQueue_RemoveByConnection(t *testing.T) {
	q := NewQueue()
	q.Enqueue(models.EnqueueRequest{PlayerName: "http-only"}, baseTime)
	ws := q.Enqueue(models.EnqueueRequest{PlayerName: "ws", ConnectionID: "conn-1"}, baseTime)

	_, ok := q.RemoveByConnection("")
	assert.False(t, ok, "empty connection id must not match request/response clients")

	removed, ok := q.RemoveByConnection("conn-1")
	require.True(t, ok)
	assert.Equal(t, ws.ID, removed.ID)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_DrainIsAllOrNothing(t *testing.T) {
	q := NewQueue()
	players := fillQueue(q, 4, baseTime)
	before := q.Snapshot()

	assert.Nil(t, q.Drain(5))
	assert.Equal(t, before, q.Snapshot())
	assert.Nil(t, q.Drain(0))

	drained := q.Drain(3)
	require.Len(t, drained, 3)
	for i := range drained {
		assert.Equal(t, players[i].ID, drained[i].ID)
	}
	assert.Equal(t, []string{players[3].ID}, ids(q.Snapshot()))
}

func TestQueue_RestoreKeepsOrder(t *testing.T) {
	q := NewQueue()
	fillQueue(q, 5, baseTime)
	before := q.Snapshot()

	drained := q.Drain(3)
	q.Enqueue(models.EnqueueRequest{PlayerName: "late"}, baseTime)
	q.Restore(drained)

	after := q.Snapshot()
	require.Len(t, after, 6)
	assert.Equal(t, ids(before), ids(after[:5]))
	assert.Equal(t, "late", after[5].Name)
}

func TestQueue_EvictOlderThan(t *testing.T) {
	q := NewQueue()
	now := baseTime.Add(time.Hour)

	stale := q.Enqueue(models.EnqueueRequest{PlayerName: "stale"}, now.Add(-11*time.Minute))
	fresh := q.Enqueue(models.EnqueueRequest{PlayerName: "fresh"}, now.Add(-1*time.Minute))
	edge := q.Enqueue(models.EnqueueRequest{PlayerName: "edge"}, now.Add(-10*time.Minute))

	evicted := q.EvictOlderThan(10*time.Minute, now)

	require.Len(t, evicted, 1)
	assert.Equal(t, stale.ID, evicted[0].ID)
	assert.Equal(t, []string{fresh.ID, edge.ID}, ids(q.Snapshot()))
}

func TestQueue_FIFOUnderMixedOperations(t *testing.T) {
	q := NewQueue()
	var expected []string
	seen := make(map[string]bool)

	for i := 0; i < 30; i++ {
		p := q.Enqueue(models.EnqueueRequest{PlayerName: fmt.Sprintf("p%d", i)}, baseTime)
		require.False(t, seen[p.ID], "duplicate id generated")
		seen[p.ID] = true
		expected = append(expected, p.ID)

		if i%4 == 3 {
			victim := expected[len(expected)/2]
			_, ok := q.Cancel(victim)
			require.True(t, ok)
			expected = append(expected[:len(expected)/2], expected[len(expected)/2+1:]...)
		}
	}

	assert.Equal(t, expected, ids(q.Snapshot()))
}
