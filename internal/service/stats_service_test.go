package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu      sync.Mutex
	entries []models.StatsEntry
	err     error
}

func (f *fakeLedger) Append(_ context.Context, entry *models.StatsEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedger) ListByPlayer(_ context.Context, playerName string) ([]models.StatsEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.StatsEntry
	for _, e := range f.entries {
		if e.PlayerName == playerName {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestStatsService_SubmitAndSummary(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewStatsService(ledger, nil)
	ctx := context.Background()

	submissions := []models.SubmitStatsRequest{
		{PlayerName: "neo", MatchID: "m1", Kills: 10, Deaths: 2, Score: 1200},
		{PlayerName: "neo", MatchID: "m1", Kills: 3, Deaths: 1, Score: 300},
		{PlayerName: "neo", MatchID: "m2", Kills: 5, Deaths: 5, Score: 500},
		{PlayerName: "neo", Kills: 2, Deaths: 0, Score: 100},
		{PlayerName: "trinity", MatchID: "m1", Kills: 7, Deaths: 3, Score: 900},
	}
	for _, req := range submissions {
		entry, err := svc.Submit(ctx, req)
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.RecordedAt.IsZero())
	}

	summary, err := svc.Summary(ctx, "neo")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Matches)
	assert.Equal(t, 20, summary.Kills)
	assert.Equal(t, 8, summary.Deaths)
	assert.Equal(t, 2100, summary.Score)
	assert.InDelta(t, 2.5, summary.KDRatio, 0.0001)
}

func TestStatsService_SummaryForUnknownPlayer(t *testing.T) {
	svc := NewStatsService(&fakeLedger{}, nil)

	summary, err := svc.Summary(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Matches)
	assert.Zero(t, summary.KDRatio)
}

func TestStatsService_Validation(t *testing.T) {
	svc := NewStatsService(&fakeLedger{}, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, models.SubmitStatsRequest{PlayerName: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Submit(ctx, models.SubmitStatsRequest{PlayerName: "neo", Kills: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Summary(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatsService_LedgerFailure(t *testing.T) {
	svc := NewStatsService(&fakeLedger{err: errors.New("connection refused")}, nil)

	_, err := svc.Submit(context.Background(), models.SubmitStatsRequest{PlayerName: "neo"})
	assert.ErrorIs(t, err, ErrStatsUnavailable)

	_, err = svc.Summary(context.Background(), "neo")
	assert.ErrorIs(t, err, ErrStatsUnavailable)
}
