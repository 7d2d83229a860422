package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

var _ ports.Notifier = (*RedisPublisher)(nil)

// RedisPublisher sends status changes to a Redis Pub/Sub channel so every
// API instance can push them to its own subscribers.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.StatusChanged) error {
	if p == nil || p.client == nil {
		return errors.New("redis publisher not configured")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventName(), err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// RedisRelay copies events from the Redis channel into a local broadcaster.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	local   ports.Notifier
	logger  *slog.Logger
}

func NewRedisRelay(client redis.UniversalClient, channel string, local ports.Notifier, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RedisRelay{client: client, channel: channel, local: local, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("status relay subscribed", slog.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event domain.StatusChanged
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("dropping malformed status event", slog.String("error", err.Error()))
				continue
			}
			if err := r.local.Publish(ctx, event); err != nil {
				r.logger.Warn("local status publish failed", slog.Int64("order.id", event.OrderID), slog.String("error", err.Error()))
			}
		}
	}
}
