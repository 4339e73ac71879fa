package matchmaking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rl-arena/arena-matchmaker/internal/models"
)

var (
	ErrNotEnoughPlayers  = errors.New("not enough players in queue")
	ErrNoServerAvailable = errors.New("no game server available")
)

// Lifecycle 진행 중인 매치 집합과 상태 전이
//
// waiting → in_progress → ended. ended가 되면 매치는 집합에서 제거되고
// 서버 예약 인원이 정확히 한 번 해제된다.
type Lifecycle struct {
	registry  *Registry
	queue     *Queue
	shuffler  Shuffler
	matchSize int

	matches map[string]*models.Match
	order   []string
}

func NewLifecycle(registry *Registry, queue *Queue, shuffler Shuffler, matchSize int) *Lifecycle {
	return &Lifecycle{
		registry:  registry,
		queue:     queue,
		shuffler:  shuffler,
		matchSize: matchSize,
		matches:   make(map[string]*models.Match),
	}
}

// SetShuffler 팀 배정 난수원 교체 (테스트용)
func (l *Lifecycle) SetShuffler(shuffler Shuffler) {
	l.shuffler = shuffler
}

func (l *Lifecycle) MatchSize() int {
	return l.matchSize
}

// TryCreate 큐에서 한 배치를 꺼내 서버를 예약하고 waiting 상태의 매치를 만든다.
// 실패하면 큐와 서버 상태는 호출 전과 같다.
func (l *Lifecycle) TryCreate(now time.Time) (*models.Match, error) {
	if l.queue.Len() < l.matchSize {
		return nil, ErrNotEnoughPlayers
	}

	server, ok := l.registry.FindAvailable(l.matchSize)
	if !ok {
		return nil, ErrNoServerAvailable
	}

	players := l.queue.Drain(l.matchSize)
	if players == nil {
		return nil, ErrNotEnoughPlayers
	}

	if !l.registry.Reserve(server.ID, len(players)) {
		l.queue.Restore(players)
		return nil, ErrNoServerAvailable
	}

	match := &models.Match{
		ID:      uuid.NewString(),
		Players: make([]models.Player, len(players)),
		Teams:   SplitTeams(players, l.shuffler),
		Server: models.ServerInfo{
			ID:      server.ID,
			Address: server.Address,
			Port:    server.Port,
			Region:  server.Region,
		},
		Status:    models.MatchStatusWaiting,
		CreatedAt: now,
	}
	for i, p := range players {
		match.Players[i] = *p
	}

	l.matches[match.ID] = match
	l.order = append(l.order, match.ID)

	return cloneMatch(match), nil
}

// Start waiting 상태일 때만 in_progress로 전이
func (l *Lifecycle) Start(id string, now time.Time) (*models.Match, bool) {
	match, ok := l.matches[id]
	if !ok || match.Status != models.MatchStatusWaiting {
		return nil, false
	}

	startedAt := now
	match.Status = models.MatchStatusInProgress
	match.StartedAt = &startedAt
	return cloneMatch(match), true
}

// End 매치 종료 및 예약 해제. 이미 종료된 매치면 false
func (l *Lifecycle) End(id string, reason models.MatchEndReason, now time.Time) (*models.Match, bool) {
	match, ok := l.matches[id]
	if !ok {
		return nil, false
	}

	endedAt := now
	match.Status = models.MatchStatusEnded
	match.EndedAt = &endedAt
	match.EndReason = reason

	l.registry.Release(match.Server.ID, len(match.Players))
	l.remove(id)

	return match, true
}

// ExpireOlderThan 생성 후 maxAge가 지난 매치를 상태와 무관하게 종료
func (l *Lifecycle) ExpireOlderThan(maxAge time.Duration, now time.Time) []*models.Match {
	var stale []string
	for _, id := range l.order {
		if now.Sub(l.matches[id].CreatedAt) > maxAge {
			stale = append(stale, id)
		}
	}

	expired := make([]*models.Match, 0, len(stale))
	for _, id := range stale {
		if match, ok := l.End(id, models.EndReasonExpired, now); ok {
			expired = append(expired, match)
		}
	}
	return expired
}

func (l *Lifecycle) Get(id string) (*models.Match, bool) {
	match, ok := l.matches[id]
	if !ok {
		return nil, false
	}
	return cloneMatch(match), true
}

// List 생성 순서대로 활성 매치 반환
func (l *Lifecycle) List() []*models.Match {
	list := make([]*models.Match, 0, len(l.order))
	for _, id := range l.order {
		list = append(list, cloneMatch(l.matches[id]))
	}
	return list
}

func (l *Lifecycle) Len() int {
	return len(l.order)
}

// ReservedBy 서버별 활성 매치 인원 합계
func (l *Lifecycle) ReservedBy(serverID string) int {
	total := 0
	for _, id := range l.order {
		if match := l.matches[id]; match.Server.ID == serverID {
			total += len(match.Players)
		}
	}
	return total
}

func (l *Lifecycle) remove(id string) {
	delete(l.matches, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	c.Players = append([]models.Player(nil), m.Players...)
	c.Teams = [2][]string{
		append([]string(nil), m.Teams[0]...),
		append([]string(nil), m.Teams[1]...),
	}
	if m.StartedAt != nil {
		t := *m.StartedAt
		c.StartedAt = &t
	}
	return &c
}
