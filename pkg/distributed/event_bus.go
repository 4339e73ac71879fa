package distributed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"go.uber.org/zap"
)

const DefaultEventChannel = "matchmaking:events"

// envelope 채널에 실리는 메시지. 발행 인스턴스를 함께 싣는다
type envelope struct {
	InstanceID string                  `json:"instance_id"`
	Event      models.MatchmakingEvent `json:"event"`
}

// RedisEventBus Redis Pub/Sub으로 매칭 이벤트를 내보내는 발행자
type RedisEventBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *zap.Logger
}

func NewRedisEventBus(client *redis.Client, channel string, logger *zap.Logger) *RedisEventBus {
	if channel == "" {
		channel = DefaultEventChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEventBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.New().String(),
		logger:     logger,
	}
}

func (b *RedisEventBus) InstanceID() string {
	return b.instanceID
}

// PublishEvent 매칭 이벤트 발행
func (b *RedisEventBus) PublishEvent(ctx context.Context, event models.MatchmakingEvent) error {
	data, err := json.Marshal(envelope{InstanceID: b.instanceID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Published matchmaking event",
		zap.String("type", string(event.Type)),
		zap.String("channel", b.channel))

	return nil
}

// Subscribe ctx가 끝날 때까지 이벤트를 handler로 전달한다. 구독이 성립한 뒤 ready가 닫힌다
func (b *RedisEventBus) Subscribe(ctx context.Context, ready chan<- struct{}, handler func(instanceID string, event models.MatchmakingEvent)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	b.logger.Info("Subscribed to matchmaking events",
		zap.String("instance_id", b.instanceID),
		zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Error("Failed to unmarshal event", zap.Error(err))
				continue
			}
			handler(env.InstanceID, env.Event)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
