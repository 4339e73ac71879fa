package models

import "time"

type GameServerStatus string

const (
	ServerStatusOnline  GameServerStatus = "online"
	ServerStatusOffline GameServerStatus = "offline"
)

// GameServer 등록된 게임 호스팅 프로세스
type GameServer struct {
	ID              string           `json:"id"`
	Address         string           `json:"address"`
	Port            int              `json:"port"`
	Region          string           `json:"region"`
	MaxPlayers      int              `json:"maxPlayers"`
	CurrentPlayers  int              `json:"currentPlayers"` // 매치에 예약된 인원
	ReportedPlayers int              `json:"reportedPlayers"`
	ActiveMatchID   string           `json:"activeMatchId,omitempty"`
	Status          GameServerStatus `json:"status"`
	LastHeartbeat   time.Time        `json:"lastHeartbeat"`
	RegisteredAt    time.Time        `json:"registeredAt"`
}

// FreeSlots 남은 수용 인원
func (s GameServer) FreeSlots() int {
	return s.MaxPlayers - s.CurrentPlayers
}

// RegisterServerRequest HTTP 등록 요청이자 GAME_SERVERS_FILE 항목
type RegisterServerRequest struct {
	ServerID       string `json:"serverId" mapstructure:"server_id" binding:"required"`
	Address        string `json:"address" mapstructure:"address" binding:"required"`
	Port           int    `json:"port" mapstructure:"port" binding:"required,min=1,max=65535"`
	Region         string `json:"region" mapstructure:"region"`
	MaxPlayers     int    `json:"maxPlayers" mapstructure:"max_players" binding:"required,min=1"`
	CurrentPlayers int    `json:"currentPlayers" mapstructure:"current_players" binding:"min=0"`
}

type HeartbeatRequest struct {
	ServerID       string `json:"serverId" binding:"required"`
	CurrentPlayers *int   `json:"currentPlayers"`
	MatchID        string `json:"matchId"`
}

// ServerInfo 플레이어에게 전달되는 접속 정보
type ServerInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	Region  string `json:"region,omitempty"`
}
