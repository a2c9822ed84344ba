package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Feed struct {
		MaxSize int `envconfig:"FEED_MAX_SIZE" default:"500"`
	} `envconfig:""`

	PostCache struct {
		TTLSeconds int `envconfig:"POST_CACHE_TTL_SECONDS" default:"86400"`
	} `envconfig:""`

	Moderation struct {
		BatchLimit     int           `envconfig:"MODERATION_BATCH_LIMIT" default:"100"`
		BanThreshold   int           `envconfig:"MODERATION_BAN_THRESHOLD" default:"5"`
		SweepInterval  time.Duration `envconfig:"MODERATION_SWEEP_INTERVAL" default:"1h"`
		Workers        int           `envconfig:"MODERATION_WORKERS" default:"8"`
		DictionaryPath string        `envconfig:"MODERATION_DICTIONARY_PATH" default:"configs/forbidden_words.txt"`
	} `envconfig:""`

	Queues struct {
		PostCreated string        `envconfig:"POST_CREATED_QUEUE" default:"post_created"`
		PostViewed  string        `envconfig:"POST_VIEWED_QUEUE" default:"post_viewed"`
		RetryDelay  time.Duration `envconfig:"QUEUE_RETRY_DELAY" default:"5s"`
	} `envconfig:""`

	Ban struct {
		Channel string `envconfig:"BAN_CHANNEL" default:"user_ban"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
