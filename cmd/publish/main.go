// Утилита публикации тестовых событий в очереди брокера.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"strconv"
	"strings"
	"time"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/config"
	applog "post-feed-service/internal/infra/log"
	"post-feed-service/internal/infra/queue"
)

func main() {
	kind := flag.String("kind", "created", "тип события: created или viewed")
	postID := flag.Int64("post", 0, "идентификатор поста")
	authorID := flag.Int64("author", 0, "идентификатор автора (created)")
	userID := flag.Int64("user", 0, "идентификатор пользователя (viewed)")
	followers := flag.String("followers", "", "идентификаторы подписчиков через запятую (created)")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	publisher, err := queue.NewRabbitPublisher(cfg.RabbitURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("publish: не удалось подключиться к брокеру")
	}
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		queueName string
		payload   []byte
	)
	switch *kind {
	case "created":
		event := domain.PostCreatedEvent{
			PostID:      *postID,
			AuthorID:    *authorID,
			CreatedAt:   time.Now().UTC(),
			FollowerIDs: parseIDs(*followers),
		}
		if err := event.Validate(); err != nil {
			logger.Fatal().Err(err).Msg("publish: некорректное событие публикации")
		}
		payload, err = json.Marshal(event)
		queueName = cfg.Queues.PostCreated
	case "viewed":
		event := domain.PostViewEvent{PostID: *postID, UserID: *userID, ViewedAt: time.Now().UTC()}
		if err := event.Validate(); err != nil {
			logger.Fatal().Err(err).Msg("publish: некорректное событие просмотра")
		}
		payload, err = json.Marshal(event)
		queueName = cfg.Queues.PostViewed
	default:
		logger.Fatal().Str("kind", *kind).Msg("publish: неизвестный тип события")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("publish: сериализация события")
	}

	if err := publisher.Publish(ctx, queueName, payload); err != nil {
		logger.Fatal().Err(err).Str("queue", queueName).Msg("publish: отправка события")
	}
	logger.Info().Str("queue", queueName).Str("kind", *kind).Msg("publish: событие отправлено")
}

func parseIDs(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
