package feedcache

import (
	"context"
	"testing"
	"time"
)

func TestIncrementViewsOnExistingRecord(t *testing.T) {
	client := newTestClient(t)
	counter := NewRedisViewCounter(client)
	ctx := context.Background()

	if err := counter.RecordView(ctx, 5, 77, time.Now()); err != nil {
		t.Fatalf("не ожидали ошибку записи просмотра: %v", err)
	}

	applied, err := counter.IncrementViews(ctx, 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !applied {
		t.Fatalf("ожидали применённый инкремент")
	}

	score, err := client.ZScore(ctx, viewKey(5), viewsMember).Result()
	if err != nil {
		t.Fatalf("не удалось прочитать счётчик: %v", err)
	}
	if score != 1 {
		t.Fatalf("ожидали счётчик 1, получили %v", score)
	}

	applied, err = counter.IncrementViews(ctx, 5)
	if err != nil || !applied {
		t.Fatalf("ожидали повторный инкремент: applied=%v err=%v", applied, err)
	}
	score, _ = client.ZScore(ctx, viewKey(5), viewsMember).Result()
	if score != 2 {
		t.Fatalf("ожидали счётчик 2, получили %v", score)
	}
}

func TestIncrementViewsMissingRecordIsNoop(t *testing.T) {
	counter := NewRedisViewCounter(newTestClient(t))

	applied, err := counter.IncrementViews(context.Background(), 999)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if applied {
		t.Fatalf("инкремент несуществующей записи не должен применяться")
	}
}

func TestRecordViewStoresUserTimestamp(t *testing.T) {
	client := newTestClient(t)
	counter := NewRedisViewCounter(client)
	ctx := context.Background()

	viewedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := counter.RecordView(ctx, 3, 42, viewedAt); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	members, err := client.ZRange(ctx, viewKey(3), 0, -1).Result()
	if err != nil {
		t.Fatalf("не удалось прочитать записи: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("ожидали одну отметку просмотра, получили %v", members)
	}
	want := "42:" + "1717243200000"
	if members[0] != want {
		t.Fatalf("ожидали отметку %q, получили %q", want, members[0])
	}
}
