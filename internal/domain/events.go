package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEvent возвращается, если входящее событие не прошло валидацию.
var ErrInvalidEvent = errors.New("invalid event payload")

// PostCreatedEvent — событие публикации поста из брокера.
type PostCreatedEvent struct {
	PostID      int64     `json:"postId"`
	AuthorID    int64     `json:"authorId"`
	CreatedAt   time.Time `json:"createdAt"`
	FollowerIDs []int64   `json:"followerIds"`
}

// Validate проверяет обязательные поля события.
func (e PostCreatedEvent) Validate() error {
	if e.PostID <= 0 {
		return fmt.Errorf("%w: postId=%d", ErrInvalidEvent, e.PostID)
	}
	if e.AuthorID <= 0 {
		return fmt.Errorf("%w: authorId=%d", ErrInvalidEvent, e.AuthorID)
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("%w: createdAt пустой", ErrInvalidEvent)
	}
	return nil
}

// Score возвращает счёт ранжирования: время создания в секундах Unix.
func (e PostCreatedEvent) Score() float64 {
	return float64(e.CreatedAt.UTC().Unix())
}

// DecodePostCreatedEvent разбирает и валидирует событие публикации.
func DecodePostCreatedEvent(payload []byte) (PostCreatedEvent, error) {
	var event PostCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return PostCreatedEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return PostCreatedEvent{}, err
	}
	return event, nil
}

// PostViewEvent — событие просмотра поста из брокера.
type PostViewEvent struct {
	PostID   int64     `json:"post_id"`
	UserID   int64     `json:"user_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Validate проверяет обязательные поля события.
func (e PostViewEvent) Validate() error {
	if e.PostID <= 0 {
		return fmt.Errorf("%w: post_id=%d", ErrInvalidEvent, e.PostID)
	}
	if e.UserID <= 0 {
		return fmt.Errorf("%w: user_id=%d", ErrInvalidEvent, e.UserID)
	}
	if e.ViewedAt.IsZero() {
		return fmt.Errorf("%w: viewed_at пустой", ErrInvalidEvent)
	}
	return nil
}

// DecodePostViewEvent разбирает и валидирует событие просмотра.
func DecodePostViewEvent(payload []byte) (PostViewEvent, error) {
	var event PostViewEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return PostViewEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return PostViewEvent{}, err
	}
	return event, nil
}
