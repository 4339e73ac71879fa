package models

import "time"

// StatsEntry 플레이어 전적 원장 항목 (append-only)
type StatsEntry struct {
	ID         int64     `json:"id" db:"id"`
	PlayerName string    `json:"playerName" db:"player_name"`
	MatchID    string    `json:"matchId,omitempty" db:"match_id"`
	Kills      int       `json:"kills" db:"kills"`
	Deaths     int       `json:"deaths" db:"deaths"`
	Score      int       `json:"score" db:"score"`
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
}

type SubmitStatsRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
	Kills      int    `json:"kills" binding:"min=0"`
	Deaths     int    `json:"deaths" binding:"min=0"`
	Score      int    `json:"score"`
	MatchID    string `json:"matchId"`
}

type PlayerStatsSummary struct {
	PlayerName string  `json:"playerName"`
	Matches    int     `json:"matches"`
	Kills      int     `json:"kills"`
	Deaths     int     `json:"deaths"`
	Score      int     `json:"score"`
	KDRatio    float64 `json:"kdRatio"`
}
