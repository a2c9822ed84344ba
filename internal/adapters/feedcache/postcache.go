package feedcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

const postKeyPrefix = "post:"

// RedisPostCache кэширует события публикации постов с TTL.
type RedisPostCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.PostCache = (*RedisPostCache)(nil)

// NewRedisPostCache создаёт кэш постов.
func NewRedisPostCache(client *redis.Client, ttl time.Duration) *RedisPostCache {
	return &RedisPostCache{client: client, ttl: ttl}
}

func postKey(postID int64) string {
	return postKeyPrefix + strconv.FormatInt(postID, 10)
}

// Put безусловно перезаписывает кэшированный пост.
func (c *RedisPostCache) Put(ctx context.Context, event domain.PostCreatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация поста: %w", err)
	}
	key := postKey(event.PostID)
	start := time.Now()
	err = c.client.Set(ctx, key, payload, c.ttl).Err()
	metrics.ObserveNetworkRequest("redis", "post_cache_set", "post", start, err)
	if err != nil {
		return fmt.Errorf("кэширование поста: %w", err)
	}
	return nil
}

// Get возвращает кэшированный пост; отсутствие — не ошибка.
func (c *RedisPostCache) Get(ctx context.Context, postID int64) (domain.PostCreatedEvent, bool, error) {
	key := postKey(postID)
	start := time.Now()
	payload, err := c.client.Get(ctx, key).Bytes()
	metrics.ObserveNetworkRequest("redis", "post_cache_get", "post", start, err)
	if errors.Is(err, redis.Nil) {
		return domain.PostCreatedEvent{}, false, nil
	}
	if err != nil {
		return domain.PostCreatedEvent{}, false, fmt.Errorf("чтение кэша поста: %w", err)
	}
	var event domain.PostCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.PostCreatedEvent{}, false, fmt.Errorf("разбор кэша поста: %w", err)
	}
	return event, true, nil
}
