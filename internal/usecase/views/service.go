package views

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// Service обрабатывает события просмотра постов.
type Service struct {
	counter domain.ViewCounter
	log     zerolog.Logger
}

// NewService создаёт сервис счётчика просмотров.
func NewService(counter domain.ViewCounter, logger zerolog.Logger) *Service {
	return &Service{counter: counter, log: logger}
}

// HandlePostViewed фиксирует просмотр и увеличивает счётчик. Потерянный
// из-за конкуренции инкремент логируется и не считается ошибкой:
// счётчик просмотров приблизительный.
func (s *Service) HandlePostViewed(ctx context.Context, payload []byte) error {
	event, err := domain.DecodePostViewEvent(payload)
	if err != nil {
		metrics.ViewEventsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("разбор события просмотра: %w", err)
	}

	if err := s.counter.RecordView(ctx, event.PostID, event.UserID, event.ViewedAt); err != nil {
		metrics.ViewEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("запись просмотра: %w", err)
	}

	applied, err := s.counter.IncrementViews(ctx, event.PostID)
	if err != nil {
		metrics.ViewEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("инкремент просмотров: %w", err)
	}
	if !applied {
		metrics.ViewEventsTotal.WithLabelValues("dropped").Inc()
		s.log.Warn().Int64("post", event.PostID).Msg("views: инкремент отброшен из-за конкурентной записи")
		return nil
	}

	metrics.ViewEventsTotal.WithLabelValues("ok").Inc()
	return nil
}
