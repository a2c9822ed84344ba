package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"post-feed-service/internal/adapters/feedcache"
	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/config"
	applog "post-feed-service/internal/infra/log"
	"post-feed-service/internal/infra/metrics"
	"post-feed-service/internal/infra/queue"
	fanoutusecase "post-feed-service/internal/usecase/fanout"
	viewsusecase "post-feed-service/internal/usecase/views"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	feedStore := feedcache.NewRedisFeedStore(redisClient, cfg.Feed.MaxSize)
	postCache := feedcache.NewRedisPostCache(redisClient, time.Duration(cfg.PostCache.TTLSeconds)*time.Second)
	viewCounter := feedcache.NewRedisViewCounter(redisClient)

	if cfg.RabbitURL == "" {
		logger.Fatal().Msg("fanout: не указан адрес брокера (RABBITMQ_URL)")
	}
	createdQueue, err := queue.NewRabbitEventQueue(cfg.RabbitURL, cfg.Queues.PostCreated, cfg.Queues.RetryDelay)
	if err != nil {
		logger.Fatal().Err(err).Msg("fanout: не удалось подключить очередь публикаций")
	}
	defer createdQueue.Close()
	viewedQueue, err := queue.NewRabbitEventQueue(cfg.RabbitURL, cfg.Queues.PostViewed, cfg.Queues.RetryDelay)
	if err != nil {
		logger.Fatal().Err(err).Msg("fanout: не удалось подключить очередь просмотров")
	}
	defer viewedQueue.Close()

	fanoutService := fanoutusecase.NewService(postCache, feedStore, logger.With().Str("component", "fanout").Logger())
	viewsService := viewsusecase.NewService(viewCounter, logger.With().Str("component", "views").Logger())

	logger.Info().Msg("fanout: запуск обработки событий")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runConsumer(ctx, logger.With().Str("queue", cfg.Queues.PostCreated).Logger(), createdQueue, fanoutService.HandlePostCreated)
	}()
	go func() {
		defer wg.Done()
		runConsumer(ctx, logger.With().Str("queue", cfg.Queues.PostViewed).Logger(), viewedQueue, viewsService.HandlePostViewed)
	}()
	wg.Wait()

	logger.Info().Msg("fanout: остановлен")
}

// runConsumer крутит цикл приёма: успех подтверждается, ошибка возвращает
// событие в очередь повтора с задержкой.
func runConsumer(ctx context.Context, log zerolog.Logger, source domain.EventSource, handle func(context.Context, []byte) error) {
	for {
		payload, ack, err := source.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("consumer: ошибка чтения очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := handle(ctx, payload); err != nil {
			log.Error().Err(err).Msg("consumer: обработка события, вернём на повтор")
			if ackErr := ack(false); ackErr != nil {
				log.Error().Err(ackErr).Msg("consumer: не удалось вернуть событие в очередь")
			}
			continue
		}
		if err := ack(true); err != nil {
			log.Error().Err(err).Msg("consumer: не удалось подтвердить событие")
		}
	}
}
