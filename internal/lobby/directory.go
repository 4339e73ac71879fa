package lobby

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidHost  = errors.New("invalid host: room code, ip and port 1-65535 are required")
)

// Host 플레이어가 직접 띄운 게임의 접속 정보
type Host struct {
	RoomCode     string    `json:"roomCode"`
	IP           string    `json:"ip"`
	Port         int       `json:"port"`
	ConnectionID string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Directory 룸 코드 → 호스트. 전용 서버 없이 P2P로 붙는 경로
type Directory struct {
	mu    sync.RWMutex
	hosts map[string]Host
	clock func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		hosts: make(map[string]Host),
		clock: time.Now,
	}
}

// CreateHost 같은 코드가 있으면 덮어쓴다
func (d *Directory) CreateHost(roomCode, ip string, port int, connectionID string) (Host, error) {
	roomCode = strings.TrimSpace(roomCode)
	ip = strings.TrimSpace(ip)
	if roomCode == "" || ip == "" || port < 1 || port > 65535 {
		return Host{}, ErrInvalidHost
	}

	host := Host{
		RoomCode:     roomCode,
		IP:           ip,
		Port:         port,
		ConnectionID: connectionID,
		CreatedAt:    d.clock(),
	}

	d.mu.Lock()
	d.hosts[roomCode] = host
	d.mu.Unlock()

	return host, nil
}

func (d *Directory) Join(roomCode string) (Host, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	host, ok := d.hosts[strings.TrimSpace(roomCode)]
	if !ok {
		return Host{}, ErrRoomNotFound
	}
	return host, nil
}

// RemoveByConnection 연결이 끊긴 호스트의 룸을 모두 제거하고 코드 목록 반환
func (d *Directory) RemoveByConnection(connectionID string) []string {
	if connectionID == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var removed []string
	for code, host := range d.hosts {
		if host.ConnectionID == connectionID {
			delete(d.hosts, code)
			removed = append(removed, code)
		}
	}
	sort.Strings(removed)
	return removed
}

// List 룸 코드 순
func (d *Directory) List() []Host {
	d.mu.RLock()
	defer d.mu.RUnlock()

	hosts := make([]Host, 0, len(d.hosts))
	for _, host := range d.hosts {
		hosts = append(hosts, host)
	}
	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].RoomCode < hosts[j].RoomCode
	})
	return hosts
}
