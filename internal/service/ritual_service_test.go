package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ritual-service/internal/domain/entity"
	"ritual-service/internal/infrastructure/catalog"
	"ritual-service/internal/infrastructure/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []*RitualCompletedEvent
}

func (p *capturingPublisher) PublishRitualCompleted(ctx context.Context, event *RitualCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func engineCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]*entity.ActivityDefinition{
		{ID: "breath-anchor", Title: "Anchor Breathing", MinTier: entity.TierFree, XPReward: 10, GemReward: 1},
		{ID: "gratitude-three", Title: "Three Gratitudes", MinTier: entity.TierFree, XPReward: 10, GemReward: 1},
		{ID: "body-scan", Title: "Body Scan", MinTier: entity.TierFree, XPReward: 20, GemReward: 2},
		{ID: "letter-unsent", Title: "Unsent Letter", MinTier: entity.TierPremium, XPReward: 40, GemReward: 5},
	})
	require.NoError(t, err)
	return cat
}

// newTestEngine wires the service to the in-memory store with a controllable
// clock. Moving *clock forward simulates day rollover.
func newTestEngine(t *testing.T, store *memory.Store, opts Options) (*ritualService, *time.Time) {
	t.Helper()
	svc := NewRitualService(engineCatalog(t), store.Assignments(), store.Completions(),
		store.Journals(), store.Progressions(), opts).(*ritualService)

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestGetOrCreateTodayAssignmentIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	require.Len(t, first.ActivityIDs, 1)
	assert.False(t, first.RerollUsed)

	second, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ActivityIDs, second.ActivityIDs)
	assert.Equal(t, first.Date, second.Date)
}

func TestGetOrCreateTodayAssignmentConcurrent(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()

	const callers = 16
	results := make([]*entity.DailyAssignment, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetOrCreateTodayAssignment(context.Background(), userID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ActivityIDs, results[i].ActivityIDs,
			"every concurrent caller must observe the same assignment")
	}
}

func TestPremiumAssignmentCount(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestEngine(t, store, Options{PremiumDailyActivities: 2})
	userID := uuid.New()
	store.SetProfile(userID, entity.TierPremium, entity.ArchetypeUnspecified, *clock)

	assignment, err := svc.GetOrCreateTodayAssignment(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, assignment.ActivityIDs, 2)
	assert.NotEqual(t, assignment.ActivityIDs[0], assignment.ActivityIDs[1])
}

func TestRerollOncePerDay(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	original, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)

	rerolled, err := svc.Reroll(ctx, userID)
	require.NoError(t, err)
	assert.True(t, rerolled.RerollUsed)
	assert.NotEqual(t, original.ActivityIDs, rerolled.ActivityIDs,
		"reroll should draw a different activity when the pool allows it")

	_, err = svc.Reroll(ctx, userID)
	assert.ErrorIs(t, err, entity.ErrRerollAlreadyUsed)

	// The first reroll's result sticks.
	current, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, rerolled.ActivityIDs, current.ActivityIDs)
}

func TestRerollConcurrentSpendsOnce(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reroll(ctx, userID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, entity.ErrRerollAlreadyUsed)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent reroll may win")
}

func TestRerollWithoutAssignment(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})

	_, err := svc.Reroll(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entity.ErrAssignmentNotFound)
}

func TestCompleteActivityQualifying(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{}
	svc, _ := newTestEngine(t, store, Options{
		Gate:   QualityGate{MinEngagementSeconds: 20, MinReflectionChars: 20},
		Events: publisher,
	})
	userID := uuid.New()
	ctx := context.Background()

	assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	activityID := assignment.ActivityIDs[0]

	reflection := "Today I noticed my breath slowing down after a minute."
	result, err := svc.CompleteActivity(ctx, userID, activityID, 120, reflection, 4)
	require.NoError(t, err)

	activity, ok := svc.GetActivity(activityID)
	require.True(t, ok)
	assert.True(t, result.Qualifies)
	assert.Equal(t, activity.XPReward, result.XPGranted)
	assert.Equal(t, activity.GemReward, result.GemsGranted)
	assert.Equal(t, int32(1), result.Streak)

	// The reflection lands in the journal as a side effect.
	entry, err := store.Journals().Get(ctx, userID, assignment.Date, activityID)
	require.NoError(t, err)
	assert.Equal(t, reflection, entry.Text)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Len(t, publisher.events, 1)
	assert.Equal(t, userID.String(), publisher.events[0].UserID)
	assert.True(t, publisher.events[0].Qualifies)
}

func TestCompleteActivityNonQualifying(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{
		Gate: QualityGate{MinEngagementSeconds: 20, MinReflectionChars: 20},
	})
	userID := uuid.New()
	ctx := context.Background()

	assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)

	result, err := svc.CompleteActivity(ctx, userID, assignment.ActivityIDs[0], 5, "ok", 3)
	require.NoError(t, err)

	assert.False(t, result.Qualifies)
	assert.Zero(t, result.XPGranted)
	assert.Zero(t, result.GemsGranted)
	assert.Equal(t, int32(1), result.Streak, "streak credit does not depend on qualification")

	summary, err := svc.GetProgressionSummary(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, summary.XPTotal)
	assert.Zero(t, summary.GemTotal)
}

func TestCompleteActivityIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{
		Gate: QualityGate{MinEngagementSeconds: 20, MinReflectionChars: 20},
	})
	userID := uuid.New()
	ctx := context.Background()

	assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	activityID := assignment.ActivityIDs[0]

	reflection := "A long enough reflection to clear the gate."
	first, err := svc.CompleteActivity(ctx, userID, activityID, 60, reflection, 4)
	require.NoError(t, err)

	_, err = svc.CompleteActivity(ctx, userID, activityID, 600, reflection, 5)
	assert.ErrorIs(t, err, entity.ErrAlreadyCompleted)

	summary, err := svc.GetProgressionSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.XPGranted, summary.XPTotal, "retry must not double-mint")
	assert.Equal(t, first.GemsGranted, summary.GemTotal)
	assert.Equal(t, int32(1), summary.Streak)
}

func TestCompleteActivityNotAssigned(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)

	_, err = svc.CompleteActivity(ctx, userID, "letter-unsent", 60, "not on my list today", 3)
	assert.ErrorIs(t, err, entity.ErrActivityNotAssigned)
}

func TestStreakAcrossDays(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	completeToday := func() int32 {
		t.Helper()
		assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
		require.NoError(t, err)
		result, err := svc.CompleteActivity(ctx, userID, assignment.ActivityIDs[0], 60,
			"A reflection long enough to qualify today.", 4)
		require.NoError(t, err)
		return result.Streak
	}

	assert.Equal(t, int32(1), completeToday())

	*clock = clock.AddDate(0, 0, 1)
	assert.Equal(t, int32(2), completeToday())

	// Miss a day: the streak restarts at 1 on the next completion.
	*clock = clock.AddDate(0, 0, 2)
	assert.Equal(t, int32(1), completeToday())

	summary, err := svc.GetProgressionSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), summary.Streak)
	assert.Equal(t, int32(2), summary.LongestStreak)
}

func TestStreakCreditIsPerDay(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestEngine(t, store, Options{PremiumDailyActivities: 2})
	userID := uuid.New()
	store.SetProfile(userID, entity.TierPremium, entity.ArchetypeUnspecified, *clock)
	ctx := context.Background()

	assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	require.Len(t, assignment.ActivityIDs, 2)

	reflection := "Another reflection long enough to qualify."
	first, err := svc.CompleteActivity(ctx, userID, assignment.ActivityIDs[0], 60, reflection, 4)
	require.NoError(t, err)
	second, err := svc.CompleteActivity(ctx, userID, assignment.ActivityIDs[1], 60, reflection, 4)
	require.NoError(t, err)

	assert.Equal(t, int32(1), first.Streak)
	assert.Equal(t, int32(1), second.Streak, "second activity on the same day adds currency, not streak")

	summary, err := svc.GetProgressionSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.XPGranted+second.XPGranted, summary.XPTotal)
}

func TestSummaryShowsLapsedStreakAsZero(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	_, err = svc.CompleteActivity(ctx, userID, assignment.ActivityIDs[0], 60,
		"A reflection long enough to qualify today.", 4)
	require.NoError(t, err)

	*clock = clock.AddDate(0, 0, 3)

	summary, err := svc.GetProgressionSummary(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, summary.Streak, "a lapsed streak must display as zero")
	assert.Equal(t, int32(1), summary.LongestStreak)
}

func TestSaveJournalOverwrites(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)
	activityID := assignment.ActivityIDs[0]

	_, err = svc.SaveJournal(ctx, userID, activityID, "first draft", 3, nil, entity.JournalSourceTyped)
	require.NoError(t, err)

	_, err = svc.SaveJournal(ctx, userID, activityID, "second thoughts", 4, nil, entity.JournalSourceDictated)
	require.NoError(t, err)

	entry, err := store.Journals().Get(ctx, userID, assignment.Date, activityID)
	require.NoError(t, err)
	assert.Equal(t, "second thoughts", entry.Text)
	assert.Equal(t, int32(4), entry.Mood)
	assert.Equal(t, entity.JournalSourceDictated, entry.Source)
}

func TestSaveJournalTagsAreTierGated(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestEngine(t, store, Options{})
	ctx := context.Background()

	freeUser := uuid.New()
	assignment, err := svc.GetOrCreateTodayAssignment(ctx, freeUser)
	require.NoError(t, err)

	entry, err := svc.SaveJournal(ctx, freeUser, assignment.ActivityIDs[0], "calm", 4,
		[]string{"morning", "breath"}, entity.JournalSourceTyped)
	require.NoError(t, err)
	assert.Empty(t, entry.Tags, "free tier does not unlock tags")

	plusUser := uuid.New()
	store.SetProfile(plusUser, entity.TierPlus, entity.ArchetypeUnspecified, *clock)
	assignment, err = svc.GetOrCreateTodayAssignment(ctx, plusUser)
	require.NoError(t, err)

	entry, err = svc.SaveJournal(ctx, plusUser, assignment.ActivityIDs[0], "calm", 4,
		[]string{"morning", "breath"}, entity.JournalSourceTyped)
	require.NoError(t, err)
	assert.Equal(t, []string{"morning", "breath"}, entry.Tags)
}

func TestSaveJournalRequiresAssignedActivity(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.GetOrCreateTodayAssignment(ctx, userID)
	require.NoError(t, err)

	_, err = svc.SaveJournal(ctx, userID, "letter-unsent", "off-list musing", 3, nil, entity.JournalSourceTyped)
	assert.ErrorIs(t, err, entity.ErrActivityNotAssigned)
}

func TestGetHistory(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestEngine(t, store, Options{})
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assignment, err := svc.GetOrCreateTodayAssignment(ctx, userID)
		require.NoError(t, err)
		_, err = svc.CompleteActivity(ctx, userID, assignment.ActivityIDs[0], 60,
			"A reflection long enough to qualify today.", 4)
		require.NoError(t, err)
		*clock = clock.AddDate(0, 0, 1)
	}

	records, total, err := svc.GetHistory(ctx, userID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	require.Len(t, records, 2)
	assert.True(t, records[0].CompletedAt.After(records[1].CompletedAt),
		"history is most recent first")

	records, _, err = svc.GetHistory(ctx, userID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
