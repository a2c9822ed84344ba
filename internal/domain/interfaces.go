package domain

import (
	"context"
	"time"
)

// FeedStore хранит ограниченные ранжированные ленты подписчиков.
type FeedStore interface {
	// AddAndTrim атомарно добавляет пост в ленту подписчика и обрезает её
	// до максимального размера. applied=false означает, что оптимистичная
	// транзакция была прервана конкурентной записью.
	AddAndTrim(ctx context.Context, followerID, postID int64, score float64) (applied bool, err error)
	// RankedPostIDs возвращает идентификаторы постов ленты по убыванию счёта.
	RankedPostIDs(ctx context.Context, followerID int64) ([]int64, error)
}

// PostCache кэширует денормализованные события публикации по id поста.
type PostCache interface {
	Put(ctx context.Context, event PostCreatedEvent) error
	// Get возвращает событие и признак наличия; отсутствие — не ошибка.
	Get(ctx context.Context, postID int64) (PostCreatedEvent, bool, error)
}

// ViewCounter ведёт счётчики просмотров постов.
type ViewCounter interface {
	// IncrementViews атомарно увеличивает счётчик просмотров.
	// applied=false означает прерванную конкурентной записью транзакцию
	// либо отсутствие записи счётчика.
	IncrementViews(ctx context.Context, postID int64) (applied bool, err error)
	// RecordView сохраняет отметку о просмотре поста пользователем.
	RecordView(ctx context.Context, postID, userID int64, viewedAt time.Time) error
}

// PostRepo управляет записями постов в хранилище записей.
type PostRepo interface {
	// FindUnverifiedPosts возвращает до limit постов, ждущих модерации,
	// от старых к новым.
	FindUnverifiedPosts(ctx context.Context, limit int) ([]Post, error)
	// FindOffendingPosts возвращает посты, отклонённые модерацией.
	FindOffendingPosts(ctx context.Context) ([]Post, error)
	// FindAllByIDs возвращает существующие посты по списку id одним запросом.
	FindAllByIDs(ctx context.Context, ids []int64) ([]Post, error)
	// SaveVerification записывает результат модерации поста.
	SaveVerification(ctx context.Context, postID int64, verified bool, verifiedDate time.Time) error
}

// BanPublisher публикует сигналы на блокировку авторов.
type BanPublisher interface {
	PublishBan(ctx context.Context, authorID int64) error
}

// ModerationDictionary проверяет текст по словарю запрещённых слов.
type ModerationDictionary interface {
	IsTextAllowed(text string) bool
}

// EventAckFunc подтверждает (true) или возвращает на повторную доставку
// с задержкой (false) полученное событие.
type EventAckFunc func(ok bool) error

// EventSource выдаёт события из брокера с ручным подтверждением.
type EventSource interface {
	Receive(ctx context.Context) (payload []byte, ack EventAckFunc, err error)
}

// EventPublisher публикует события в очередь брокера.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, payload []byte) error
}
