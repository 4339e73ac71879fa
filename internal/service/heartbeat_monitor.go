package service

import (
	"sync"
	"time"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"go.uber.org/zap"
)

// ServerEvictor 하트비트 기한을 넘긴 서버를 정리하는 대상
type ServerEvictor interface {
	EvictDeadServers() []models.GameServer
}

// HeartbeatMonitor 주기적으로 레지스트리를 검사해 죽은 서버를 제거
type HeartbeatMonitor struct {
	target   ServerEvictor
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewHeartbeatMonitor(target ServerEvictor, interval time.Duration, logger *zap.Logger) *HeartbeatMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatMonitor{
		target:   target,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start 모니터 시작
func (m *HeartbeatMonitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.logger.Info("Starting HeartbeatMonitor", zap.Duration("interval", m.interval))

	m.wg.Add(1)
	go m.loop()
}

// Stop 모니터 중지
func (m *HeartbeatMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()
	m.logger.Info("HeartbeatMonitor stopped")
}

func (m *HeartbeatMonitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := m.target.EvictDeadServers(); len(evicted) > 0 {
				m.logger.Debug("Heartbeat scan evicted servers", zap.Int("count", len(evicted)))
			}
		case <-m.stopChan:
			return
		}
	}
}
