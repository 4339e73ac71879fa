package repository

import (
	"context"
	"fmt"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/rl-arena/arena-matchmaker/pkg/database"
)

type StatsRepository struct {
	db *database.DB
}

func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Append 전적 한 줄 추가. ID와 기록 시각은 DB가 돌려준 값으로 채운다
func (r *StatsRepository) Append(ctx context.Context, entry *models.StatsEntry) error {
	query := `
		INSERT INTO player_stats (player_name, match_id, kills, deaths, score, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recorded_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.PlayerName,
		entry.MatchID,
		entry.Kills,
		entry.Deaths,
		entry.Score,
		entry.RecordedAt,
	).Scan(&entry.ID, &entry.RecordedAt)

	if err != nil {
		return fmt.Errorf("failed to append stats: %w", err)
	}

	return nil
}

// ListByPlayer 플레이어의 전적을 기록 순서대로 조회
func (r *StatsRepository) ListByPlayer(ctx context.Context, playerName string) ([]models.StatsEntry, error) {
	query := `
		SELECT id, player_name, match_id, kills, deaths, score, recorded_at
		FROM player_stats
		WHERE player_name = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	entries := []models.StatsEntry{}
	for rows.Next() {
		var e models.StatsEntry
		err := rows.Scan(
			&e.ID,
			&e.PlayerName,
			&e.MatchID,
			&e.Kills,
			&e.Deaths,
			&e.Score,
			&e.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats: %w", err)
	}

	return entries, nil
}
