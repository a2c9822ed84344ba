package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// Service собирает ленту пользователя из ранжированного кэша и хранилища записей.
type Service struct {
	feed  domain.FeedStore
	posts domain.PostRepo
	log   zerolog.Logger
}

// NewService создаёт сервис чтения лент.
func NewService(feed domain.FeedStore, posts domain.PostRepo, logger zerolog.Logger) *Service {
	return &Service{feed: feed, posts: posts, log: logger}
}

// GetFeed возвращает ленту пользователя в порядке кэша. Идентификаторы без
// записи в хранилище молча пропускаются; пустая лента — пустой список,
// не ошибка. Результат не кэшируется и собирается заново при каждом вызове.
func (s *Service) GetFeed(ctx context.Context, userID int64) ([]domain.PostSummary, error) {
	start := time.Now()
	defer func() {
		metrics.FeedReadDuration.Observe(time.Since(start).Seconds())
	}()

	ids, err := s.feed.RankedPostIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("чтение ленты: %w", err)
	}
	if len(ids) == 0 {
		s.log.Debug().Int64("user", userID).Msg("feed: лента пуста")
		return []domain.PostSummary{}, nil
	}

	posts, err := s.posts.FindAllByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("выборка постов ленты: %w", err)
	}
	byID := make(map[int64]domain.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}

	result := make([]domain.PostSummary, 0, len(ids))
	for _, id := range ids {
		post, ok := byID[id]
		if !ok {
			continue
		}
		result = append(result, domain.SummaryFromPost(post))
	}

	s.log.Debug().Int64("user", userID).Int("ids", len(ids)).Int("posts", len(result)).Msg("feed: лента собрана")
	return result, nil
}
