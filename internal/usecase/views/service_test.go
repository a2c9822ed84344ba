package views

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"post-feed-service/internal/domain"
)

type stubCounter struct {
	increments []int64
	records    []recordedView
	applied    bool
	incErr     error
	recordErr  error
}

type recordedView struct {
	postID   int64
	userID   int64
	viewedAt time.Time
}

func (s *stubCounter) IncrementViews(_ context.Context, postID int64) (bool, error) {
	if s.incErr != nil {
		return false, s.incErr
	}
	if s.applied {
		s.increments = append(s.increments, postID)
	}
	return s.applied, nil
}

func (s *stubCounter) RecordView(_ context.Context, postID, userID int64, viewedAt time.Time) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.records = append(s.records, recordedView{postID: postID, userID: userID, viewedAt: viewedAt})
	return nil
}

func viewPayload(t *testing.T, event domain.PostViewEvent) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("не удалось сериализовать событие: %v", err)
	}
	return payload
}

func TestHandlePostViewedIncrementsCounter(t *testing.T) {
	counter := &stubCounter{applied: true}
	service := NewService(counter, zerolog.Nop())

	event := domain.PostViewEvent{PostID: 5, UserID: 9, ViewedAt: time.Now().UTC()}
	if err := service.HandlePostViewed(context.Background(), viewPayload(t, event)); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(counter.records) != 1 || counter.records[0].postID != 5 || counter.records[0].userID != 9 {
		t.Fatalf("ожидали отметку просмотра, получили %+v", counter.records)
	}
	if len(counter.increments) != 1 {
		t.Fatalf("ожидали один инкремент, получили %d", len(counter.increments))
	}
}

func TestHandlePostViewedDroppedIncrementIsNotAnError(t *testing.T) {
	counter := &stubCounter{applied: false}
	service := NewService(counter, zerolog.Nop())

	event := domain.PostViewEvent{PostID: 5, UserID: 9, ViewedAt: time.Now().UTC()}
	if err := service.HandlePostViewed(context.Background(), viewPayload(t, event)); err != nil {
		t.Fatalf("отброшенный инкремент не ошибка: %v", err)
	}
}

func TestHandlePostViewedCounterErrorIsRetried(t *testing.T) {
	counter := &stubCounter{incErr: errors.New("redis down")}
	service := NewService(counter, zerolog.Nop())

	event := domain.PostViewEvent{PostID: 5, UserID: 9, ViewedAt: time.Now().UTC()}
	if err := service.HandlePostViewed(context.Background(), viewPayload(t, event)); err == nil {
		t.Fatalf("ожидали ошибку для отрицательного подтверждения")
	}
}

func TestHandlePostViewedMalformedPayload(t *testing.T) {
	service := NewService(&stubCounter{applied: true}, zerolog.Nop())

	if err := service.HandlePostViewed(context.Background(), []byte("мусор")); err == nil {
		t.Fatalf("ожидали ошибку разбора")
	}
	if err := service.HandlePostViewed(context.Background(), []byte(`{"post_id":1,"user_id":0}`)); err == nil {
		t.Fatalf("ожидали ошибку валидации")
	}
}
