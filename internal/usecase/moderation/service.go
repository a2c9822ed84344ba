package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// ErrSweepInProgress возвращается, если предыдущий проход модерации ещё не завершён.
var ErrSweepInProgress = errors.New("moderation sweep already running")

// Service проверяет посты по словарю и эскалирует злостных нарушителей.
type Service struct {
	posts        domain.PostRepo
	dictionary   domain.ModerationDictionary
	banPublisher domain.BanPublisher
	batchLimit   int
	banThreshold int
	workers      int
	log          zerolog.Logger

	sweeping atomic.Bool
}

// NewService создаёт сервис модерации.
func NewService(posts domain.PostRepo, dictionary domain.ModerationDictionary, banPublisher domain.BanPublisher, batchLimit, banThreshold, workers int, logger zerolog.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		posts:        posts,
		dictionary:   dictionary,
		banPublisher: banPublisher,
		batchLimit:   batchLimit,
		banThreshold: banThreshold,
		workers:      workers,
		log:          logger,
	}
}

// ModeratePosts выбирает пачки непроверенных постов и проверяет каждую
// с ограниченным параллелизмом, пока выборка не опустеет. Пересекающиеся
// запуски не допускаются: повторный вызов во время прохода возвращает
// ErrSweepInProgress.
func (s *Service) ModeratePosts(ctx context.Context) error {
	if !s.sweeping.CompareAndSwap(false, true) {
		return ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	start := time.Now()
	defer func() {
		metrics.ModerationSweepSeconds.Observe(time.Since(start).Seconds())
	}()

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := s.posts.FindUnverifiedPosts(ctx, s.batchLimit)
		if err != nil {
			return fmt.Errorf("выборка постов на модерацию: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		s.moderateBatch(ctx, batch)
		total += len(batch)
	}

	s.log.Info().Int("posts", total).Dur("took", time.Since(start)).Msg("moderation: проход завершён")
	return nil
}

// moderateBatch проверяет пачку на пуле воркеров и дожидается её целиком,
// прежде чем вернуть управление.
func (s *Service) moderateBatch(ctx context.Context, batch []domain.Post) {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, post := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(post domain.Post) {
			defer wg.Done()
			defer func() { <-sem }()
			s.moderatePost(ctx, post)
		}(post)
	}
	wg.Wait()
}

// moderatePost — граница задачи: ошибка или паника одного поста не
// прерывает ни пачку, ни проход. Пост, у которого не записался
// verified_date, будет выбран снова на следующем проходе.
func (s *Service) moderatePost(ctx context.Context, post domain.Post) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Int64("post", post.ID).Interface("panic", r).Msg("moderation: паника при проверке поста")
		}
	}()

	verified := s.dictionary.IsTextAllowed(post.Content)
	if err := s.posts.SaveVerification(ctx, post.ID, verified, time.Now().UTC()); err != nil {
		s.log.Error().Err(err).Int64("post", post.ID).Msg("moderation: сохранение результата")
		return
	}
	verdict := "verified"
	if !verified {
		verdict = "rejected"
		s.log.Warn().Int64("post", post.ID).Int64("author", post.AuthorID).Msg("moderation: пост отклонён")
	}
	metrics.ModerationPostsTotal.WithLabelValues(verdict).Inc()
}

// BanOffendingAuthors считает отклонённые посты по авторам и публикует
// сигнал блокировки для тех, у кого их строго больше порога. Состояние не
// сохраняется, повторный запуск лишь публикует сигналы заново.
func (s *Service) BanOffendingAuthors(ctx context.Context) error {
	offending, err := s.posts.FindOffendingPosts(ctx)
	if err != nil {
		return fmt.Errorf("выборка отклонённых постов: %w", err)
	}

	counts := make(map[int64]int, len(offending))
	for _, post := range offending {
		counts[post.AuthorID]++
	}

	var lastErr error
	for authorID, count := range counts {
		if count <= s.banThreshold {
			continue
		}
		if err := s.banPublisher.PublishBan(ctx, authorID); err != nil {
			s.log.Error().Err(err).Int64("author", authorID).Msg("moderation: публикация сигнала блокировки")
			lastErr = err
			continue
		}
		s.log.Info().Int64("author", authorID).Int("offences", count).Msg("moderation: автор отправлен на блокировку")
	}
	if lastErr != nil {
		return fmt.Errorf("эскалация нарушителей: %w", lastErr)
	}
	return nil
}
