package feedcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAddAndTrimKeepsFeedBounded(t *testing.T) {
	store := NewRedisFeedStore(newTestClient(t), 3)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		applied, err := store.AddAndTrim(ctx, 7, i, float64(100+i))
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if !applied {
			t.Fatalf("ожидали применённую транзакцию для поста %d", i)
		}
	}

	ids, err := store.RankedPostIDs(ctx, 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку чтения: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ожидали 3 поста в ленте, получили %d", len(ids))
	}
	want := []int64{5, 4, 3}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("ожидали порядок %v, получили %v", want, ids)
		}
	}
}

func TestAddAndTrimBoundaryEvictsLowestScore(t *testing.T) {
	store := NewRedisFeedStore(newTestClient(t), 3)
	ctx := context.Background()

	// Лента ровно на максимуме.
	for i := int64(1); i <= 3; i++ {
		if _, err := store.AddAndTrim(ctx, 1, i, float64(i)); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	if _, err := store.AddAndTrim(ctx, 1, 10, 99); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	ids, err := store.RankedPostIDs(ctx, 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку чтения: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ожидали ровно 3 поста, получили %d", len(ids))
	}
	for _, id := range ids {
		if id == 1 {
			t.Fatalf("ожидали вытеснение поста с наименьшим счётом, лента: %v", ids)
		}
	}
	if ids[0] != 10 {
		t.Fatalf("ожидали новый пост первым, лента: %v", ids)
	}
}

func TestAddAndTrimIsIdempotent(t *testing.T) {
	store := NewRedisFeedStore(newTestClient(t), 5)
	ctx := context.Background()

	if _, err := store.AddAndTrim(ctx, 2, 42, 100); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.AddAndTrim(ctx, 2, 42, 100); err != nil {
		t.Fatalf("не ожидали ошибку повторной записи: %v", err)
	}

	ids, err := store.RankedPostIDs(ctx, 2)
	if err != nil {
		t.Fatalf("не ожидали ошибку чтения: %v", err)
	}
	if len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("ожидали единственный пост 42, получили %v", ids)
	}
}

func TestRankedPostIDsEmptyFeed(t *testing.T) {
	store := NewRedisFeedStore(newTestClient(t), 5)

	ids, err := store.RankedPostIDs(context.Background(), 404)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("ожидали пустую ленту, получили %v", ids)
	}
}

func TestFeedsAreIndependentPerFollower(t *testing.T) {
	store := NewRedisFeedStore(newTestClient(t), 3)
	ctx := context.Background()

	if _, err := store.AddAndTrim(ctx, 1, 100, 10); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.AddAndTrim(ctx, 2, 200, 20); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	first, err := store.RankedPostIDs(ctx, 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку чтения: %v", err)
	}
	if len(first) != 1 || first[0] != 100 {
		t.Fatalf("ожидали в ленте 1 только пост 100, получили %v", first)
	}
}
