package matchmaking

import (
	"time"

	"github.com/google/uuid"
	"github.com/rl-arena/arena-matchmaker/internal/models"
)

// Queue FIFO 매칭 대기열
//
// 큐 크기는 수십 명 수준을 가정하므로 취소/검색은 선형 탐색으로 처리한다.
type Queue struct {
	entries []*models.Player
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue 새 플레이어를 큐 끝에 추가
func (q *Queue) Enqueue(req models.EnqueueRequest, now time.Time) *models.Player {
	player := &models.Player{
		ID:           uuid.NewString(),
		Name:         req.PlayerName,
		Region:       req.Region,
		GameMode:     req.GameMode,
		JoinedAt:     now,
		ConnectionID: req.ConnectionID,
	}
	q.entries = append(q.entries, player)
	return player
}

// Cancel ID가 일치하는 첫 항목, 없으면 이름이 일치하는 첫 항목 제거
func (q *Queue) Cancel(idOrName string) (*models.Player, bool) {
	if idOrName == "" {
		return nil, false
	}
	if i := q.indexOf(func(p *models.Player) bool { return p.ID == idOrName }); i >= 0 {
		return q.removeAt(i), true
	}
	if i := q.indexOf(func(p *models.Player) bool { return p.Name == idOrName }); i >= 0 {
		return q.removeAt(i), true
	}
	return nil, false
}

// RemoveByConnection 연결이 끊긴 플레이어 제거
func (q *Queue) RemoveByConnection(connectionID string) (*models.Player, bool) {
	if connectionID == "" {
		return nil, false
	}
	if i := q.indexOf(func(p *models.Player) bool { return p.ConnectionID == connectionID }); i >= 0 {
		return q.removeAt(i), true
	}
	return nil, false
}

// Drain 앞에서부터 n명을 꺼냄. n명이 안 되면 아무것도 제거하지 않는다
func (q *Queue) Drain(n int) []*models.Player {
	if n <= 0 || len(q.entries) < n {
		return nil
	}

	drained := make([]*models.Player, n)
	copy(drained, q.entries[:n])

	rest := make([]*models.Player, len(q.entries)-n)
	copy(rest, q.entries[n:])
	q.entries = rest

	return drained
}

// Restore 꺼냈던 플레이어를 원래 순서대로 큐 앞에 되돌림
func (q *Queue) Restore(players []*models.Player) {
	if len(players) == 0 {
		return
	}
	entries := make([]*models.Player, 0, len(players)+len(q.entries))
	entries = append(entries, players...)
	entries = append(entries, q.entries...)
	q.entries = entries
}

// EvictOlderThan maxAge보다 오래 기다린 플레이어 제거
func (q *Queue) EvictOlderThan(maxAge time.Duration, now time.Time) []*models.Player {
	var evicted []*models.Player
	kept := q.entries[:0]

	for _, p := range q.entries {
		if now.Sub(p.JoinedAt) > maxAge {
			evicted = append(evicted, p)
			continue
		}
		kept = append(kept, p)
	}

	// 남은 꼬리 참조 정리
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = nil
	}
	q.entries = kept
	return evicted
}

// Position 1부터 시작하는 대기 순번, 없으면 0
func (q *Queue) Position(id string) int {
	return q.indexOf(func(p *models.Player) bool { return p.ID == id }) + 1
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Snapshot 현재 큐 복사본
func (q *Queue) Snapshot() []models.Player {
	list := make([]models.Player, 0, len(q.entries))
	for _, p := range q.entries {
		list = append(list, *p)
	}
	return list
}

func (q *Queue) indexOf(match func(*models.Player) bool) int {
	for i, p := range q.entries {
		if match(p) {
			return i
		}
	}
	return -1
}

func (q *Queue) removeAt(i int) *models.Player {
	p := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return p
}
