package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"post-feed-service/internal/adapters/feedcache"
	"post-feed-service/internal/adapters/repo"
	"post-feed-service/internal/infra/config"
	"post-feed-service/internal/infra/db"
	infrahttp "post-feed-service/internal/infra/http"
	applog "post-feed-service/internal/infra/log"
	"post-feed-service/internal/infra/metrics"
	feedusecase "post-feed-service/internal/usecase/feed"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	feedStore := feedcache.NewRedisFeedStore(redisClient, cfg.Feed.MaxSize)
	repoAdapter := repo.NewPostgres(pool)
	feedService := feedusecase.NewService(feedStore, repoAdapter, logger.With().Str("component", "feed").Logger())

	server := infrahttp.NewServer(logger.With().Str("component", "http").Logger())
	server.Router.Get("/feed/{userID}", feedHandler(feedService, logger))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: ошибка остановки сервера")
		}
	}()

	if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("api: сервер завершился с ошибкой")
	}
	logger.Info().Msg("api: остановлен")
}

// feedHandler отдаёт ленту пользователя в порядке ранжирования.
func feedHandler(service *feedusecase.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "некорректный идентификатор пользователя", http.StatusBadRequest)
			return
		}
		feed, err := service.GetFeed(r.Context(), userID)
		if err != nil {
			logger.Error().Err(err).Int64("user", userID).Msg("api: ошибка сборки ленты")
			http.Error(w, "не удалось собрать ленту", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(feed); err != nil {
			logger.Error().Err(err).Msg("api: ошибка сериализации ответа")
		}
	}
}
