package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AirBox.influxDB/internal/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AlertEvent is the message published for each dispatched batch.
type AlertEvent struct {
	Recipient string         `json:"recipient"`
	Alerts    []models.Alert `json:"alerts"`
	SentAt    time.Time      `json:"sentAt"`
}

// RedisPublisher mirrors alert batches onto a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger.With(zap.String("component", "redis-alerts")),
	}
}

func (p *RedisPublisher) Dispatch(ctx context.Context, recipient string, alerts []models.Alert) error {
	payload, err := json.Marshal(AlertEvent{Recipient: recipient, Alerts: alerts, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("%w: encoding alert event: %v", ErrDispatch, err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("%w: publishing to %s: %v", ErrDispatch, p.channel, err)
	}
	p.logger.Debug("Alert event published", zap.String("channel", p.channel), zap.Int64("receivers", receivers))
	return nil
}
