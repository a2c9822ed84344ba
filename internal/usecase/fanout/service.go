package fanout

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// Service раскладывает опубликованный пост по лентам подписчиков.
type Service struct {
	cache domain.PostCache
	feed  domain.FeedStore
	log   zerolog.Logger
}

// NewService создаёт сервис фан-аута.
func NewService(cache domain.PostCache, feed domain.FeedStore, logger zerolog.Logger) *Service {
	return &Service{cache: cache, feed: feed, log: logger}
}

// HandlePostCreated обрабатывает событие публикации поста. Возвращённая
// ошибка означает отрицательное подтверждение: брокер доставит событие
// повторно с задержкой, обработка идемпотентна.
func (s *Service) HandlePostCreated(ctx context.Context, payload []byte) error {
	event, err := domain.DecodePostCreatedEvent(payload)
	if err != nil {
		metrics.FanoutEventsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("разбор события публикации: %w", err)
	}

	eventLog := s.log.With().Int64("post", event.PostID).Int64("author", event.AuthorID).Logger()

	if err := s.cache.Put(ctx, event); err != nil {
		metrics.FanoutEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("кэширование поста: %w", err)
	}

	if len(event.FollowerIDs) == 0 {
		eventLog.Info().Msg("fanout: у автора нет подписчиков")
		metrics.FanoutEventsTotal.WithLabelValues("no_followers").Inc()
		return nil
	}

	// Записи независимы: ошибка одного подписчика не останавливает
	// остальных, но любая ошибка приводит к повторной доставке события.
	score := event.Score()
	var lastErr error
	for _, followerID := range event.FollowerIDs {
		applied, err := s.feed.AddAndTrim(ctx, followerID, event.PostID, score)
		if err != nil {
			metrics.FanoutFollowerWrites.WithLabelValues("error").Inc()
			eventLog.Error().Err(err).Int64("follower", followerID).Msg("fanout: запись в ленту")
			lastErr = err
			continue
		}
		if !applied {
			// Конкурентная запись прервала транзакцию: множество осталось
			// целым, потерянное обновление допишет повторная доставка.
			metrics.FanoutFollowerWrites.WithLabelValues("aborted").Inc()
			eventLog.Warn().Int64("follower", followerID).Msg("fanout: транзакция прервана конкурентной записью")
			continue
		}
		metrics.FanoutFollowerWrites.WithLabelValues("ok").Inc()
	}
	if lastErr != nil {
		metrics.FanoutEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("фан-аут по подписчикам: %w", lastErr)
	}

	eventLog.Info().Int("followers", len(event.FollowerIDs)).Msg("fanout: ленты обновлены")
	metrics.FanoutEventsTotal.WithLabelValues("ok").Inc()
	return nil
}
