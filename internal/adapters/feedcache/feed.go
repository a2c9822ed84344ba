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

const feedKeyPrefix = "feed:"

// RedisFeedStore хранит ленты подписчиков в отсортированных множествах Redis.
type RedisFeedStore struct {
	client  *redis.Client
	maxSize int
}

var _ domain.FeedStore = (*RedisFeedStore)(nil)

// NewRedisFeedStore создаёт хранилище лент с ограничением размера.
func NewRedisFeedStore(client *redis.Client, maxSize int) *RedisFeedStore {
	return &RedisFeedStore{client: client, maxSize: maxSize}
}

func feedKey(followerID int64) string {
	return feedKeyPrefix + strconv.FormatInt(followerID, 10)
}

// AddAndTrim добавляет пост в ленту и обрезает её до максимального размера
// в одной оптимистичной транзакции. Повторный вызов с той же парой
// (подписчик, пост) лишь перезаписывает счёт.
func (s *RedisFeedStore) AddAndTrim(ctx context.Context, followerID, postID int64, score float64) (bool, error) {
	key := feedKey(followerID)
	start := time.Now()
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: strconv.FormatInt(postID, 10)})
			// Обрезка с конца: всё, что ниже maxSize лучших по счёту,
			// удаляется. Для множества размером <= maxSize это no-op.
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.maxSize-1))
			return nil
		})
		return err
	}, key)
	metrics.ObserveNetworkRequest("redis", "feed_add_trim", "feed", start, err)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("запись в ленту: %w", err)
	}
	return true, nil
}

// RankedPostIDs возвращает до maxSize идентификаторов постов ленты,
// самые свежие первыми. Чтение без побочных эффектов.
func (s *RedisFeedStore) RankedPostIDs(ctx context.Context, followerID int64) ([]int64, error) {
	key := feedKey(followerID)
	start := time.Now()
	members, err := s.client.ZRevRange(ctx, key, 0, int64(s.maxSize-1)).Result()
	metrics.ObserveNetworkRequest("redis", "feed_range", "feed", start, err)
	if err != nil {
		return nil, fmt.Errorf("чтение ленты: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
