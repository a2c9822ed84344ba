package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"post-feed-service/internal/adapters/banpub"
	dictadapter "post-feed-service/internal/adapters/moderation"
	"post-feed-service/internal/adapters/repo"
	"post-feed-service/internal/infra/config"
	"post-feed-service/internal/infra/db"
	applog "post-feed-service/internal/infra/log"
	"post-feed-service/internal/infra/metrics"
	moderationusecase "post-feed-service/internal/usecase/moderation"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("moderator: нет подключения к БД")
	}
	defer pool.Close()

	dictionary, err := dictadapter.LoadDictionary(cfg.Moderation.DictionaryPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Moderation.DictionaryPath).Msg("moderator: не удалось загрузить словарь")
	}
	logger.Info().Int("words", dictionary.Size()).Msg("moderator: словарь загружен")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	repoAdapter := repo.NewPostgres(pool)
	banPublisher := banpub.NewRedisBanPublisher(redisClient, cfg.Ban.Channel)
	moderationService := moderationusecase.NewService(
		repoAdapter,
		dictionary,
		banPublisher,
		cfg.Moderation.BatchLimit,
		cfg.Moderation.BanThreshold,
		cfg.Moderation.Workers,
		logger.With().Str("component", "moderation").Logger(),
	)

	logger.Info().Dur("interval", cfg.Moderation.SweepInterval).Msg("moderator: запуск по расписанию")

	ticker := time.NewTicker(cfg.Moderation.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("moderator: остановлен")
			return
		case <-ticker.C:
			runSweep(ctx, moderationService, logger)
		}
	}
}

func runSweep(ctx context.Context, service *moderationusecase.Service, logger zerolog.Logger) {
	logger.Info().Msg("moderator: начало прохода модерации")
	if err := service.ModeratePosts(ctx); err != nil {
		if errors.Is(err, moderationusecase.ErrSweepInProgress) {
			logger.Warn().Msg("moderator: предыдущий проход ещё не завершён, пропускаем")
			return
		}
		logger.Error().Err(err).Msg("moderator: ошибка прохода модерации")
		return
	}
	if err := service.BanOffendingAuthors(ctx); err != nil {
		logger.Error().Err(err).Msg("moderator: ошибка эскалации нарушителей")
	}
}
