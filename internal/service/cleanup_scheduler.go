package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper 오래된 매치와 대기 항목을 정리하는 대상
type Sweeper interface {
	Sweep() SweepResult
}

// CleanupScheduler 주기적 정리 작업 (기본 5분)
type CleanupScheduler struct {
	target   Sweeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewCleanupScheduler(target Sweeper, interval time.Duration, logger *zap.Logger) *CleanupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupScheduler{
		target:   target,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start 정리 작업 시작
func (c *CleanupScheduler) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("Starting CleanupScheduler", zap.Duration("interval", c.interval))

	c.wg.Add(1)
	go c.loop()
}

// Stop 정리 작업 중지
func (c *CleanupScheduler) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("CleanupScheduler stopped")
}

func (c *CleanupScheduler) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.target.Sweep()
		case <-c.stopChan:
			return
		}
	}
}
