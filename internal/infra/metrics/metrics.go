package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	FanoutEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_events_total",
		Help: "События публикации постов по исходу обработки",
	}, []string{"outcome"})

	FanoutFollowerWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_follower_writes_total",
		Help: "Записи в ленты подписчиков по исходу",
	}, []string{"outcome"})

	FeedReadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_read_seconds",
		Help:    "Время сборки ленты пользователя",
		Buckets: prometheus.DefBuckets,
	})

	ModerationSweepSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_sweep_seconds",
		Help:    "Длительность полного прохода модерации",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	})

	ModerationPostsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_posts_total",
		Help: "Проверенные модерацией посты по вердикту",
	}, []string{"verdict"})

	BanSignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ban_signals_total",
		Help: "Опубликованные сигналы на блокировку авторов",
	})

	ViewEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "view_events_total",
		Help: "События просмотра постов по исходу обработки",
	}, []string{"outcome"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FanoutEventsTotal,
		FanoutFollowerWrites,
		FeedReadDuration,
		ModerationSweepSeconds,
		ModerationPostsTotal,
		BanSignalsTotal,
		ViewEventsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer поднимает HTTP сервер с метриками и останавливает его по контексту.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
