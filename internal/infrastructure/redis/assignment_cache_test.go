package redis

import (
	"context"
	"testing"
	"time"

	"ritual-service/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func setupTestCache(t *testing.T) (*AssignmentCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := NewAssignmentCache(client)
	cache.now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	return cache, mr
}

func TestAssignmentCacheRoundTrip(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, ok := cache.Get(ctx, userID, "2026-03-10"); ok {
		t.Fatal("expected miss on empty cache")
	}

	assignment := &entity.DailyAssignment{
		UserID:      userID,
		Date:        "2026-03-10",
		ActivityIDs: []string{"breath-anchor", "body-scan"},
		RerollUsed:  true,
	}
	cache.Set(ctx, assignment)

	got, ok := cache.Get(ctx, userID, "2026-03-10")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.UserID != userID || !got.RerollUsed || len(got.ActivityIDs) != 2 {
		t.Fatalf("cached assignment mangled: %+v", got)
	}

	cache.Invalidate(ctx, userID, "2026-03-10")
	if _, ok := cache.Get(ctx, userID, "2026-03-10"); ok {
		t.Fatal("expected miss after Invalidate")
	}
}

func TestAssignmentCacheExpiresAtMidnight(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	cache.Set(ctx, &entity.DailyAssignment{
		UserID:      userID,
		Date:        "2026-03-10",
		ActivityIDs: []string{"breath-anchor"},
	})

	// 9:00 UTC on the assignment day leaves 15 hours to midnight.
	mr.FastForward(14 * time.Hour)
	if _, ok := cache.Get(ctx, userID, "2026-03-10"); !ok {
		t.Fatal("entry expired before the day rolled over")
	}

	mr.FastForward(2 * time.Hour)
	if _, ok := cache.Get(ctx, userID, "2026-03-10"); ok {
		t.Fatal("entry survived past midnight")
	}
}

func TestAssignmentCacheSkipsStaleDates(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	// Yesterday's assignment would get a non-positive TTL; it must not be
	// written at all.
	cache.Set(ctx, &entity.DailyAssignment{
		UserID:      userID,
		Date:        "2026-03-09",
		ActivityIDs: []string{"breath-anchor"},
	})

	if mr.Exists("ritual:assignment:" + userID.String() + ":2026-03-09") {
		t.Fatal("stale assignment written to cache")
	}
}

func TestAssignmentCacheDropsCorruptEntries(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()
	userID := uuid.New()
	key := "ritual:assignment:" + userID.String() + ":2026-03-10"

	mr.Set(key, "not json")

	if _, ok := cache.Get(ctx, userID, "2026-03-10"); ok {
		t.Fatal("corrupt entry returned as a hit")
	}
	if mr.Exists(key) {
		t.Fatal("corrupt entry should be dropped on read")
	}
}
