package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rl-arena/arena-matchmaker/internal/matchmaking"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"go.uber.org/zap"
)

const eventPublishTimeout = 2 * time.Second

// ScheduleFunc delay 후 task를 비동기로 실행한다. task를 호출자 고루틴에서
// 동기 실행해서는 안 된다 (호출 시점에 서비스 락을 잡고 있다).
type ScheduleFunc func(delay time.Duration, task func())

// MatchmakingConfig 매칭 엔진 설정
type MatchmakingConfig struct {
	MatchSize         int
	StartDelay        time.Duration // waiting → in_progress 자동 전이
	MatchMaxAge       time.Duration
	QueueMaxAge       time.Duration
	HeartbeatDeadline time.Duration
	EvictionPolicy    matchmaking.EvictionPolicy
}

func DefaultMatchmakingConfig() MatchmakingConfig {
	return MatchmakingConfig{
		MatchSize:         10,
		StartDelay:        120 * time.Second,
		MatchMaxAge:       30 * time.Minute,
		QueueMaxAge:       10 * time.Minute,
		HeartbeatDeadline: 30 * time.Second,
		EvictionPolicy:    matchmaking.EvictRemove,
	}
}

// SweepResult 정리 작업 결과
type SweepResult struct {
	EndedMatches   []*models.Match
	EvictedPlayers []*models.Player
}

// MatchmakingService 큐, 서버 레지스트리, 매치 라이프사이클을 하나의 락으로 묶는 오케스트레이터
type MatchmakingService struct {
	mu        sync.Mutex
	registry  *matchmaking.Registry
	queue     *matchmaking.Queue
	lifecycle *matchmaking.Lifecycle

	config   MatchmakingConfig
	notifier Notifier
	events   EventPublisher
	clock    func() time.Time
	schedule ScheduleFunc
	logger   *zap.Logger
}

func NewMatchmakingService(config MatchmakingConfig, notifier Notifier, logger *zap.Logger) *MatchmakingService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := matchmaking.NewRegistry()
	queue := matchmaking.NewQueue()
	shuffler := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &MatchmakingService{
		registry:  registry,
		queue:     queue,
		lifecycle: matchmaking.NewLifecycle(registry, queue, shuffler, config.MatchSize),
		config:    config,
		notifier:  notifier,
		clock:     time.Now,
		schedule: func(delay time.Duration, task func()) {
			time.AfterFunc(delay, task)
		},
		logger: logger,
	}
}

// SetEventPublisher 이벤트 발행자 설정 (nil이면 발행하지 않음)
func (s *MatchmakingService) SetEventPublisher(events EventPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// SetClock 시간 소스 교체 (테스트용)
func (s *MatchmakingService) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// SetScheduler 타이머 교체 (테스트용)
func (s *MatchmakingService) SetScheduler(schedule ScheduleFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = schedule
}

// SetShuffler 팀 배정 난수원 교체 (테스트용)
func (s *MatchmakingService) SetShuffler(shuffler matchmaking.Shuffler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifecycle.SetShuffler(shuffler)
}

// Enqueue 플레이어를 큐에 넣고, 한 배치가 모이면 즉시 매치를 만든다
func (s *MatchmakingService) Enqueue(req models.EnqueueRequest) (*models.Player, models.QueueStatus, error) {
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.PlayerName == "" {
		return nil, models.QueueStatus{}, ErrInvalidInput
	}

	out := &outbox{}

	s.mu.Lock()
	now := s.clock()
	player := *s.queue.Enqueue(req, now)
	out.event(models.MatchmakingEvent{Type: models.EventPlayerEnqueued, PlayerID: player.ID})

	created := s.formMatchesLocked(now, out)

	status := models.QueueStatus{
		Position: s.queue.Position(player.ID),
		Length:   s.queue.Len(),
	}
	for _, match := range created {
		if match.TeamOf(player.ID) >= 0 {
			status.MatchID = match.ID
		}
	}
	s.mu.Unlock()

	s.logger.Debug("Player enqueued",
		zap.String("playerId", player.ID),
		zap.String("name", player.Name),
		zap.Int("position", status.Position),
		zap.Int("queueLength", status.Length))

	s.flush(out)
	return &player, status, nil
}

// formMatchesLocked 큐에 배치가 남아있는 동안 매치 생성. 서버가 없으면 플레이어는 큐에 그대로 남는다
func (s *MatchmakingService) formMatchesLocked(now time.Time, out *outbox) []*models.Match {
	var created []*models.Match

	for s.queue.Len() >= s.lifecycle.MatchSize() {
		match, err := s.lifecycle.TryCreate(now)
		if err != nil {
			if errors.Is(err, matchmaking.ErrNoServerAvailable) {
				s.logger.Warn("No game server available, players stay queued",
					zap.Int("queueLength", s.queue.Len()),
					zap.Int("matchSize", s.lifecycle.MatchSize()))
			}
			break
		}

		s.logger.Info("Match created",
			zap.String("matchId", match.ID),
			zap.String("serverId", match.Server.ID),
			zap.Int("players", len(match.Players)))

		matchID := match.ID
		s.schedule(s.config.StartDelay, func() {
			s.StartMatch(matchID)
		})

		out.matchFound(match)
		out.event(models.MatchmakingEvent{
			Type:     models.EventMatchCreated,
			MatchID:  match.ID,
			ServerID: match.Server.ID,
		})
		created = append(created, match)
	}

	return created
}

// Cancel ID 또는 이름으로 대기 취소. 없는 플레이어면 false (이미 매칭/만료된 경우)
func (s *MatchmakingService) Cancel(idOrName string) (*models.Player, bool) {
	s.mu.Lock()
	player, ok := s.queue.Cancel(strings.TrimSpace(idOrName))
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("Cancel for unknown player", zap.String("player", idOrName))
		return nil, false
	}

	s.logger.Info("Player left queue", zap.String("playerId", player.ID), zap.String("name", player.Name))
	s.flush(&outbox{events: []models.MatchmakingEvent{{Type: models.EventPlayerLeft, PlayerID: player.ID}}})
	return player, true
}

// RemoveConnection 전송 계층 연결 종료 시 해당 연결의 대기 항목을 모두 제거
func (s *MatchmakingService) RemoveConnection(connectionID string) int {
	out := &outbox{}

	s.mu.Lock()
	removed := 0
	for {
		player, ok := s.queue.RemoveByConnection(connectionID)
		if !ok {
			break
		}
		removed++
		out.event(models.MatchmakingEvent{Type: models.EventPlayerLeft, PlayerID: player.ID})
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("Removed disconnected players from queue",
			zap.String("connectionId", connectionID),
			zap.Int("removed", removed))
	}
	s.flush(out)
	return removed
}

// RegisterServer 게임 서버 등록 (이미 있으면 교체)
func (s *MatchmakingService) RegisterServer(req models.RegisterServerRequest) (models.GameServer, error) {
	if strings.TrimSpace(req.ServerID) == "" || req.MaxPlayers <= 0 {
		return models.GameServer{}, ErrInvalidInput
	}

	s.mu.Lock()
	server := s.registry.Register(models.GameServer{
		ID:              req.ServerID,
		Address:         req.Address,
		Port:            req.Port,
		Region:          req.Region,
		MaxPlayers:      req.MaxPlayers,
		ReportedPlayers: req.CurrentPlayers,
	}, s.clock())
	s.mu.Unlock()

	s.logger.Info("Game server registered",
		zap.String("serverId", server.ID),
		zap.String("address", server.Address),
		zap.Int("port", server.Port),
		zap.Int("maxPlayers", server.MaxPlayers))

	s.flush(&outbox{events: []models.MatchmakingEvent{{Type: models.EventServerRegistered, ServerID: server.ID}}})
	return server, nil
}

// Heartbeat 서버 생존 신호. 모르는 서버면 false (오류 아님)
func (s *MatchmakingService) Heartbeat(req models.HeartbeatRequest) bool {
	s.mu.Lock()
	ok := s.registry.Heartbeat(req.ServerID, req.CurrentPlayers, req.MatchID, s.clock())
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("Heartbeat from unknown server", zap.String("serverId", req.ServerID))
	}
	return ok
}

// StartMatch waiting 매치를 in_progress로 전이. 이미 시작/종료된 매치면 false
func (s *MatchmakingService) StartMatch(matchID string) bool {
	s.mu.Lock()
	match, ok := s.lifecycle.Start(matchID, s.clock())
	s.mu.Unlock()

	if !ok {
		return false
	}

	s.logger.Info("Match started", zap.String("matchId", match.ID), zap.String("serverId", match.Server.ID))

	out := &outbox{}
	out.matchStarted(match)
	out.event(models.MatchmakingEvent{Type: models.EventMatchStarted, MatchID: match.ID, ServerID: match.Server.ID})
	s.flush(out)
	return true
}

// EndMatch 게임 서버의 종료 보고. 두 번째 호출은 아무것도 하지 않는다
func (s *MatchmakingService) EndMatch(matchID string) bool {
	s.mu.Lock()
	match, ok := s.lifecycle.End(matchID, models.EndReasonReported, s.clock())
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("End for unknown or finished match", zap.String("matchId", matchID))
		return false
	}

	s.logger.Info("Match ended",
		zap.String("matchId", match.ID),
		zap.String("serverId", match.Server.ID),
		zap.String("reason", string(match.EndReason)))

	s.flush(&outbox{events: []models.MatchmakingEvent{{Type: models.EventMatchEnded, MatchID: match.ID, ServerID: match.Server.ID}}})
	return true
}

// EvictDeadServers 하트비트가 끊긴 서버 정리. 해당 서버의 매치는 건드리지 않는다
func (s *MatchmakingService) EvictDeadServers() []models.GameServer {
	s.mu.Lock()
	evicted := s.registry.EvictStale(s.clock(), s.config.HeartbeatDeadline, s.config.EvictionPolicy)
	s.mu.Unlock()

	out := &outbox{}
	for _, server := range evicted {
		s.logger.Warn("Removed dead game server",
			zap.String("serverId", server.ID),
			zap.Time("lastHeartbeat", server.LastHeartbeat),
			zap.String("policy", string(s.config.EvictionPolicy)))
		out.event(models.MatchmakingEvent{Type: models.EventServerEvicted, ServerID: server.ID})
	}
	s.flush(out)
	return evicted
}

// Sweep 오래된 매치 종료 + 오래 기다린 플레이어 제거
func (s *MatchmakingService) Sweep() SweepResult {
	s.mu.Lock()
	now := s.clock()
	result := SweepResult{
		EndedMatches:   s.lifecycle.ExpireOlderThan(s.config.MatchMaxAge, now),
		EvictedPlayers: s.queue.EvictOlderThan(s.config.QueueMaxAge, now),
	}
	s.mu.Unlock()

	out := &outbox{}
	for _, match := range result.EndedMatches {
		out.event(models.MatchmakingEvent{Type: models.EventMatchEnded, MatchID: match.ID, ServerID: match.Server.ID})
	}
	for _, player := range result.EvictedPlayers {
		out.event(models.MatchmakingEvent{Type: models.EventPlayerLeft, PlayerID: player.ID})
	}

	if len(result.EndedMatches) > 0 || len(result.EvictedPlayers) > 0 {
		s.logger.Info("Cleanup sweep completed",
			zap.Int("expiredMatches", len(result.EndedMatches)),
			zap.Int("evictedPlayers", len(result.EvictedPlayers)))
	}

	s.flush(out)
	return result
}

func (s *MatchmakingService) ListServers() []models.GameServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.List()
}

func (s *MatchmakingService) ListMatches() []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.List()
}

func (s *MatchmakingService) GetMatch(matchID string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.lifecycle.Get(matchID)
	if !ok {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

func (s *MatchmakingService) QueueSnapshot() []models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Snapshot()
}

// Status 활성 매치 수, 큐 길이, 서버 수
func (s *MatchmakingService) Status() models.EngineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.EngineStatus{
		ActiveMatches: s.lifecycle.Len(),
		QueueLength:   s.queue.Len(),
		Servers:       s.registry.Len(),
	}
}

// flush 락 밖에서 알림 전달 및 이벤트 발행
func (s *MatchmakingService) flush(out *outbox) {
	for _, n := range out.found {
		s.notifier.NotifyMatchFound(n.connectionID, n.payload)
	}
	for _, n := range out.started {
		s.notifier.NotifyMatchStarted(n.connectionID, n.payload)
	}

	s.mu.Lock()
	events := s.events
	now := s.clock()
	s.mu.Unlock()

	if events == nil || len(out.events) == 0 {
		return
	}

	pending := make([]models.MatchmakingEvent, len(out.events))
	for i, event := range out.events {
		event.Timestamp = now
		pending[i] = event
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()

		for _, event := range pending {
			if err := events.PublishEvent(ctx, event); err != nil {
				s.logger.Warn("Failed to publish matchmaking event",
					zap.String("type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

type foundNotification struct {
	connectionID string
	payload      models.MatchFoundPayload
}

type startedNotification struct {
	connectionID string
	payload      models.MatchStartedPayload
}

// outbox 락을 잡은 동안 쌓아두었다가 락 해제 후 내보내는 알림/이벤트
type outbox struct {
	found   []foundNotification
	started []startedNotification
	events  []models.MatchmakingEvent
}

func (o *outbox) matchFound(match *models.Match) {
	for _, p := range match.Players {
		if p.ConnectionID == "" {
			continue
		}
		o.found = append(o.found, foundNotification{
			connectionID: p.ConnectionID,
			payload: models.MatchFoundPayload{
				MatchID:  match.ID,
				PlayerID: p.ID,
				Server:   match.Server,
				Team:     match.TeamOf(p.ID),
				Teams:    match.Teams,
			},
		})
	}
}

func (o *outbox) matchStarted(match *models.Match) {
	for _, p := range match.Players {
		if p.ConnectionID == "" {
			continue
		}
		o.started = append(o.started, startedNotification{
			connectionID: p.ConnectionID,
			payload: models.MatchStartedPayload{
				MatchID: match.ID,
				Server:  match.Server,
			},
		})
	}
}

func (o *outbox) event(event models.MatchmakingEvent) {
	o.events = append(o.events, event)
}
