package feedcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

const (
	viewKeyPrefix = "post-views:"
	viewsMember   = "views"
)

// RedisViewCounter ведёт счётчики просмотров постов в Redis.
type RedisViewCounter struct {
	client *redis.Client
}

var _ domain.ViewCounter = (*RedisViewCounter)(nil)

// NewRedisViewCounter создаёт счётчик просмотров.
func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client}
}

func viewKey(postID int64) string {
	return viewKeyPrefix + strconv.FormatInt(postID, 10)
}

// IncrementViews увеличивает счётчик просмотров под оптимистичной
// блокировкой. Увеличение применяется только к существующей записи;
// прерванная конкурентной записью транзакция возвращает applied=false —
// потерянный инкремент допустим, счётчик просмотров приблизительный.
func (c *RedisViewCounter) IncrementViews(ctx context.Context, postID int64) (bool, error) {
	key := viewKey(postID)
	applied := false
	start := time.Now()
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZIncrBy(ctx, key, 1, viewsMember)
			return nil
		})
		if err != nil {
			return err
		}
		applied = true
		return nil
	}, key)
	metrics.ObserveNetworkRequest("redis", "views_increment", "post-views", start, err)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("инкремент просмотров: %w", err)
	}
	return applied, nil
}

// RecordView сохраняет отметку о просмотре поста пользователем.
func (c *RedisViewCounter) RecordView(ctx context.Context, postID, userID int64, viewedAt time.Time) error {
	key := viewKey(postID)
	millis := viewedAt.UTC().UnixMilli()
	member := strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(millis, 10)
	start := time.Now()
	err := c.client.ZAdd(ctx, key, redis.Z{Score: float64(millis), Member: member}).Err()
	metrics.ObserveNetworkRequest("redis", "views_record", "post-views", start, err)
	if err != nil {
		return fmt.Errorf("запись просмотра: %w", err)
	}
	return nil
}
