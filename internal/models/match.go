package models

import "time"

type MatchStatus string

const (
	MatchStatusWaiting    MatchStatus = "waiting"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusEnded      MatchStatus = "ended"
)

type MatchEndReason string

const (
	EndReasonReported MatchEndReason = "reported"
	EndReasonExpired  MatchEndReason = "expired"
)

type Match struct {
	ID        string         `json:"id"`
	Players   []Player       `json:"players"`
	Teams     [2][]string    `json:"teams"` // 플레이어 ID
	Server    ServerInfo     `json:"server"`
	Status    MatchStatus    `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	StartedAt *time.Time     `json:"startedAt,omitempty"`
	EndedAt   *time.Time     `json:"endedAt,omitempty"`
	EndReason MatchEndReason `json:"endReason,omitempty"`
}

// TeamOf 플레이어가 속한 팀 번호 (없으면 -1)
func (m *Match) TeamOf(playerID string) int {
	for team, ids := range m.Teams {
		for _, id := range ids {
			if id == playerID {
				return team
			}
		}
	}
	return -1
}

// MatchFoundPayload match_found 알림
type MatchFoundPayload struct {
	MatchID  string      `json:"matchId"`
	PlayerID string      `json:"playerId"`
	Server   ServerInfo  `json:"server"`
	Team     int         `json:"team"`
	Teams    [2][]string `json:"teams"`
}

// MatchStartedPayload match_started 알림
type MatchStartedPayload struct {
	MatchID string     `json:"matchId"`
	Server  ServerInfo `json:"server"`
}

// EngineStatus 엔진 상태 요약
type EngineStatus struct {
	ActiveMatches int `json:"activeMatches"`
	QueueLength   int `json:"queueLength"`
	Servers       int `json:"servers"`
}
