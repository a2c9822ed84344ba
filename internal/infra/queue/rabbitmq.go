package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// ErrQueueClosed возвращается, если канал брокера был закрыт.
var ErrQueueClosed = errors.New("queue channel closed")

// RabbitEventQueue реализует источник событий поверх AMQP с ручным
// подтверждением. Отрицательное подтверждение уводит сообщение в очередь
// повтора с TTL, откуда оно возвращается в рабочую очередь.
type RabbitEventQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

var _ domain.EventSource = (*RabbitEventQueue)(nil)

// NewRabbitEventQueue подключается к брокеру и объявляет рабочую очередь
// вместе с очередью отложенного повтора.
func NewRabbitEventQueue(amqpURL, queue string, retryDelay time.Duration) (*RabbitEventQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("подключение к брокеру: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("открытие канала: %w", err)
	}

	retryQueue := queue + ".retry"
	_, err = ch.QueueDeclare(retryQueue, true, false, false, false, amqp.Table{
		"x-message-ttl":             retryDelay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue,
	})
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("объявление очереди повтора: %w", err)
	}
	_, err = ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": retryQueue,
	})
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("объявление очереди: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("подписка на очередь: %w", err)
	}

	return &RabbitEventQueue{conn: conn, ch: ch, queue: queue, deliveries: deliveries}, nil
}

// Receive блокирующе читает событие из очереди.
func (q *RabbitEventQueue) Receive(ctx context.Context) ([]byte, domain.EventAckFunc, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case delivery, ok := <-q.deliveries:
		if !ok {
			return nil, nil, ErrQueueClosed
		}
		ack := func(ok bool) error {
			if ok {
				return delivery.Ack(false)
			}
			// requeue=false: сообщение уходит через DLX в очередь повтора
			// и возвращается после истечения TTL.
			return delivery.Nack(false, false)
		}
		return delivery.Body, ack, nil
	}
}

// Close закрывает канал и соединение с брокером.
func (q *RabbitEventQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

// RabbitPublisher публикует события в очереди брокера.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ domain.EventPublisher = (*RabbitPublisher)(nil)

// NewRabbitPublisher подключается к брокеру для публикации событий.
func NewRabbitPublisher(amqpURL string) (*RabbitPublisher, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("подключение к брокеру: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("открытие канала: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

// Publish отправляет событие в указанную очередь.
func (p *RabbitPublisher) Publish(ctx context.Context, queue string, payload []byte) error {
	start := time.Now()
	err := p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", queue, start, err)
	if err != nil {
		return fmt.Errorf("публикация события: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение с брокером.
func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
