package matchmaking

import (
	"time"

	"github.com/rl-arena/arena-matchmaker/internal/models"
)

// EvictionPolicy 하트비트가 끊긴 서버 처리 방식
type EvictionPolicy string

const (
	EvictRemove      EvictionPolicy = "remove"
	EvictMarkOffline EvictionPolicy = "offline"
)

// Registry 게임 서버 목록 (등록 순서 유지)
//
// Registry는 동시성 보호를 하지 않는다. 호출자가 하나의 락 안에서 사용해야 한다.
type Registry struct {
	servers map[string]*models.GameServer
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		servers: make(map[string]*models.GameServer),
	}
}

// Register 서버 등록 또는 교체
func (r *Registry) Register(server models.GameServer, now time.Time) models.GameServer {
	server.Status = models.ServerStatusOnline
	server.LastHeartbeat = now

	if existing, ok := r.servers[server.ID]; ok {
		// 예약 인원은 활성 매치 합계와 같아야 하므로 MaxPlayers를 그 아래로 줄이지 않는다
		if server.MaxPlayers < existing.CurrentPlayers {
			server.MaxPlayers = existing.CurrentPlayers
		}
		server.CurrentPlayers = existing.CurrentPlayers
		server.RegisteredAt = existing.RegisteredAt
		*existing = server
		return *existing
	}

	server.CurrentPlayers = 0
	server.RegisteredAt = now
	r.servers[server.ID] = &server
	r.order = append(r.order, server.ID)
	return server
}

// Heartbeat 생존 신호 갱신. 모르는 서버면 false
func (r *Registry) Heartbeat(id string, reportedPlayers *int, activeMatchID string, now time.Time) bool {
	server, ok := r.servers[id]
	if !ok {
		return false
	}

	server.LastHeartbeat = now
	server.Status = models.ServerStatusOnline
	if reportedPlayers != nil {
		server.ReportedPlayers = *reportedPlayers
	}
	server.ActiveMatchID = activeMatchID
	return true
}

// FindAvailable need명을 수용할 수 있는 첫 번째 온라인 서버
func (r *Registry) FindAvailable(need int) (models.GameServer, bool) {
	for _, id := range r.order {
		server := r.servers[id]
		if server.Status == models.ServerStatusOnline && server.FreeSlots() >= need {
			return *server, true
		}
	}
	return models.GameServer{}, false
}

// Reserve 인원 예약. 서버가 없거나 자리가 부족하면 false
func (r *Registry) Reserve(id string, count int) bool {
	server, ok := r.servers[id]
	if !ok || server.FreeSlots() < count {
		return false
	}
	server.CurrentPlayers = clamp(server.CurrentPlayers+count, 0, server.MaxPlayers)
	return true
}

// Release 예약 해제. 이미 제거된 서버면 무시
func (r *Registry) Release(id string, count int) {
	server, ok := r.servers[id]
	if !ok {
		return
	}
	server.CurrentPlayers = clamp(server.CurrentPlayers-count, 0, server.MaxPlayers)
}

// EvictStale deadline을 넘긴 서버를 제거하거나 offline으로 표시
func (r *Registry) EvictStale(now time.Time, deadline time.Duration, policy EvictionPolicy) []models.GameServer {
	var evicted []models.GameServer
	kept := r.order[:0]

	for _, id := range r.order {
		server := r.servers[id]
		if now.Sub(server.LastHeartbeat) <= deadline {
			kept = append(kept, id)
			continue
		}

		if policy == EvictMarkOffline {
			if server.Status != models.ServerStatusOffline {
				server.Status = models.ServerStatusOffline
				evicted = append(evicted, *server)
			}
			kept = append(kept, id)
			continue
		}

		evicted = append(evicted, *server)
		delete(r.servers, id)
	}

	r.order = kept
	return evicted
}

func (r *Registry) Get(id string) (models.GameServer, bool) {
	server, ok := r.servers[id]
	if !ok {
		return models.GameServer{}, false
	}
	return *server, true
}

// List 등록 순서대로 스냅샷 반환
func (r *Registry) List() []models.GameServer {
	list := make([]models.GameServer, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, *r.servers[id])
	}
	return list
}

func (r *Registry) Len() int {
	return len(r.order)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
