package service

import (
	"context"

	"github.com/rl-arena/arena-matchmaker/internal/models"
)

// Notifier 매칭된 플레이어에게 푸시 알림을 보내는 전송 계층.
// 구현체는 블로킹하지 않아야 하며 전달 실패는 조용히 버린다.
type Notifier interface {
	NotifyMatchFound(connectionID string, payload models.MatchFoundPayload)
	NotifyMatchStarted(connectionID string, payload models.MatchStartedPayload)
}

// EventPublisher 매칭 이벤트를 외부(Redis 등)로 발행
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.MatchmakingEvent) error
}

type noopNotifier struct{}

func (noopNotifier) NotifyMatchFound(string, models.MatchFoundPayload)     {}
func (noopNotifier) NotifyMatchStarted(string, models.MatchStartedPayload) {}
