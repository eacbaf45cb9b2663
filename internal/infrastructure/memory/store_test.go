package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"ritual-service/internal/domain/entity"

	"github.com/google/uuid"
)

func TestAssignmentCreateIfAbsentConcurrent(t *testing.T) {
	store := NewStore()
	assignments := store.Assignments()
	userID := uuid.New()
	ctx := context.Background()

	const callers = 32
	var wg sync.WaitGroup
	wins := make([]bool, callers)
	stored := make([]*entity.DailyAssignment, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assignment := &entity.DailyAssignment{
				UserID:      userID,
				Date:        "2026-03-10",
				ActivityIDs: []string{uuid.NewString()},
				CreatedAt:   time.Now().UTC(),
			}
			var err error
			stored[i], wins[i], err = assignments.CreateIfAbsent(ctx, assignment)
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one insert to win, got %d", winners)
	}
	for i := 1; i < callers; i++ {
		if stored[i].ActivityIDs[0] != stored[0].ActivityIDs[0] {
			t.Fatal("losers must read back the winner's assignment")
		}
	}
}

func TestMarkRerolledSingleUse(t *testing.T) {
	store := NewStore()
	assignments := store.Assignments()
	userID := uuid.New()
	ctx := context.Background()

	_, _, err := assignments.CreateIfAbsent(ctx, &entity.DailyAssignment{
		UserID:      userID,
		Date:        "2026-03-10",
		ActivityIDs: []string{"breath-anchor"},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := assignments.MarkRerolled(ctx, userID, "2026-03-10", []string{"body-scan"})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.RerollUsed || updated.ActivityIDs[0] != "body-scan" {
		t.Fatalf("unexpected rerolled assignment: %+v", updated)
	}

	if _, err := assignments.MarkRerolled(ctx, userID, "2026-03-10", []string{"gratitude-three"}); err != entity.ErrRerollAlreadyUsed {
		t.Fatalf("expected ErrRerollAlreadyUsed, got %v", err)
	}
}

func TestCompletionCreateIfAbsent(t *testing.T) {
	store := NewStore()
	completions := store.Completions()
	userID := uuid.New()
	ctx := context.Background()

	record := &entity.CompletionRecord{
		UserID:     userID,
		Date:       "2026-03-10",
		ActivityID: "breath-anchor",
		XPGranted:  10,
	}

	inserted, err := completions.CreateIfAbsent(ctx, record)
	if err != nil || !inserted {
		t.Fatalf("first insert should win, got inserted=%v err=%v", inserted, err)
	}

	inserted, err = completions.CreateIfAbsent(ctx, record)
	if err != nil || inserted {
		t.Fatalf("duplicate insert must be rejected, got inserted=%v err=%v", inserted, err)
	}

	count, err := completions.CountByUser(ctx, userID)
	if err != nil || count != 1 {
		t.Fatalf("expected a single record, got count=%d err=%v", count, err)
	}
}

func TestProgressionApplyCompletionCredit(t *testing.T) {
	store := NewStore()
	progressions := store.Progressions()
	userID := uuid.New()
	ctx := context.Background()

	if _, err := progressions.GetOrEnroll(ctx, userID); err != nil {
		t.Fatal(err)
	}

	day1 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	progression, err := progressions.ApplyCompletionCredit(ctx, userID, day1, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if progression.XPTotal != 10 || progression.GemTotal != 1 || progression.CurrentStreak != 1 {
		t.Fatalf("unexpected progression after first credit: %+v", progression)
	}

	progression, err = progressions.ApplyCompletionCredit(ctx, userID, day1.AddDate(0, 0, 1), 20, 2)
	if err != nil {
		t.Fatal(err)
	}
	if progression.XPTotal != 30 || progression.CurrentStreak != 2 {
		t.Fatalf("unexpected progression after second credit: %+v", progression)
	}
}

func TestZeroLapsedStreaks(t *testing.T) {
	store := NewStore()
	progressions := store.Progressions()
	ctx := context.Background()

	active := uuid.New()
	lapsed := uuid.New()
	for _, id := range []uuid.UUID{active, lapsed} {
		if _, err := progressions.GetOrEnroll(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if _, err := progressions.ApplyCompletionCredit(ctx, active, now, 10, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := progressions.ApplyCompletionCredit(ctx, lapsed, now.AddDate(0, 0, -5), 10, 1); err != nil {
		t.Fatal(err)
	}

	reset, err := progressions.ZeroLapsedStreaks(ctx, now.AddDate(0, 0, -1))
	if err != nil {
		t.Fatal(err)
	}
	if reset != 1 {
		t.Fatalf("expected one lapsed streak reset, got %d", reset)
	}

	progression, err := progressions.Get(ctx, lapsed)
	if err != nil {
		t.Fatal(err)
	}
	if progression.CurrentStreak != 0 {
		t.Fatalf("lapsed streak not zeroed: %d", progression.CurrentStreak)
	}
	if progression.LongestStreak != 1 {
		t.Fatalf("longest streak must survive the reset: %d", progression.LongestStreak)
	}

	progression, err = progressions.Get(ctx, active)
	if err != nil {
		t.Fatal(err)
	}
	if progression.CurrentStreak != 1 {
		t.Fatalf("active streak must be untouched: %d", progression.CurrentStreak)
	}
}
