package banpub

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// RedisBanPublisher публикует сигналы на блокировку в канал Redis.
type RedisBanPublisher struct {
	client  *redis.Client
	channel string
}

var _ domain.BanPublisher = (*RedisBanPublisher)(nil)

// NewRedisBanPublisher создаёт издателя с именем канала из конфигурации.
func NewRedisBanPublisher(client *redis.Client, channel string) *RedisBanPublisher {
	return &RedisBanPublisher{client: client, channel: channel}
}

// PublishBan отправляет идентификатор автора в канал блокировок.
// Повторная публикация того же автора безопасна: применение блокировки
// на стороне подписчика обязано быть идемпотентным.
func (p *RedisBanPublisher) PublishBan(ctx context.Context, authorID int64) error {
	start := time.Now()
	err := p.client.Publish(ctx, p.channel, strconv.FormatInt(authorID, 10)).Err()
	metrics.ObserveNetworkRequest("redis", "ban_publish", p.channel, start, err)
	if err != nil {
		return fmt.Errorf("публикация сигнала блокировки: %w", err)
	}
	metrics.BanSignalsTotal.Inc()
	return nil
}
