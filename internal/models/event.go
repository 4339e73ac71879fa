package models

import "time"

type MatchmakingEventType string

const (
	EventPlayerEnqueued   MatchmakingEventType = "player_enqueued"
	EventPlayerLeft       MatchmakingEventType = "player_left"
	EventMatchCreated     MatchmakingEventType = "match_created"
	EventMatchStarted     MatchmakingEventType = "match_started"
	EventMatchEnded       MatchmakingEventType = "match_ended"
	EventServerRegistered MatchmakingEventType = "server_registered"
	EventServerEvicted    MatchmakingEventType = "server_evicted"
)

// MatchmakingEvent 외부로 발행되는 매칭 이벤트
type MatchmakingEvent struct {
	Type      MatchmakingEventType `json:"type"`
	MatchID   string               `json:"match_id,omitempty"`
	PlayerID  string               `json:"player_id,omitempty"`
	ServerID  string               `json:"server_id,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}
