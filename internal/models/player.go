package models

import "time"

// Player 매칭 큐에 대기 중인 플레이어
type Player struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Region       string    `json:"region,omitempty"`
	GameMode     string    `json:"gameMode,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
	ConnectionID string    `json:"-"` // 실시간 알림용 WebSocket 연결 (없으면 빈 문자열)
}

type EnqueueRequest struct {
	PlayerName   string `json:"playerName" binding:"required"`
	GameMode     string `json:"gameMode"`
	Region       string `json:"region"`
	ConnectionID string `json:"-"` // WebSocket 핸들러만 설정한다
}

type CancelRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// QueueStatus 큐 내 위치 정보
type QueueStatus struct {
	Position int    `json:"position"` // 1부터 시작, 0이면 이미 매칭됨
	Length   int    `json:"length"`
	MatchID  string `json:"matchId,omitempty"`
}
