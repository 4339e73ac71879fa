package repository

import (
	"context"
	"sync"

	"github.com/rl-arena/arena-matchmaker/internal/models"
)

// MemoryStatsRepository DATABASE_URL이 없을 때 쓰는 프로세스 내 원장
type MemoryStatsRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries []models.StatsEntry
}

func NewMemoryStatsRepository() *MemoryStatsRepository {
	return &MemoryStatsRepository{}
}

func (r *MemoryStatsRepository) Append(_ context.Context, entry *models.StatsEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryStatsRepository) ListByPlayer(_ context.Context, playerName string) ([]models.StatsEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []models.StatsEntry{}
	for _, e := range r.entries {
		if e.PlayerName == playerName {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
