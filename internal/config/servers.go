package config

import (
	"fmt"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/spf13/viper"
)

// LoadGameServers 부팅 시 미리 등록할 게임 서버 목록 (YAML/JSON/TOML)
//
//	servers:
//	  - server_id: gs-eu-1
//	    address: 10.0.0.5
//	    port: 7777
//	    region: eu-west
//	    max_players: 10
func LoadGameServers(path string) ([]models.RegisterServerRequest, error) {
	if path == "" {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read game servers file: %w", err)
	}

	var servers []models.RegisterServerRequest
	if err := v.UnmarshalKey("servers", &servers); err != nil {
		return nil, fmt.Errorf("failed to decode game servers: %w", err)
	}

	for i, s := range servers {
		if s.ServerID == "" || s.Address == "" || s.Port < 1 || s.Port > 65535 || s.MaxPlayers < 1 {
			return nil, fmt.Errorf("invalid game server entry %d (%q)", i, s.ServerID)
		}
	}

	return servers, nil
}
