package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"ritual-service/internal/domain/entity"
	"ritual-service/internal/domain/repository"
	"ritual-service/internal/domain/service"
	"ritual-service/internal/infrastructure/catalog"
	"ritual-service/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AssignmentCache is an optional, non-authoritative read cache of today's
// assignment. The store record is always authoritative; a cache miss or
// stale entry only costs one extra read.
type AssignmentCache interface {
	Get(ctx context.Context, userID uuid.UUID, date string) (*entity.DailyAssignment, bool)
	Set(ctx context.Context, assignment *entity.DailyAssignment)
	Invalidate(ctx context.Context, userID uuid.UUID, date string)
}

// EventPublisher pushes completion events to downstream collaborators
// (notifications). Publishing is best-effort; a failed publish never fails
// the completion.
type EventPublisher interface {
	PublishRitualCompleted(ctx context.Context, event *RitualCompletedEvent) error
}

// RitualCompletedEvent is emitted after every recorded completion.
type RitualCompletedEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	ActivityID  string    `json:"activity_id"`
	Date        string    `json:"date"`
	Qualifies   bool      `json:"qualifies"`
	XPGranted   int64     `json:"xp_granted"`
	GemsGranted int64     `json:"gems_granted"`
	Streak      int32     `json:"streak"`
	CompletedAt time.Time `json:"completed_at"`
}

type ritualService struct {
	catalog      *catalog.Catalog
	filter       *EligibilityFilter
	gate         QualityGate
	assignments  repository.AssignmentRepository
	completions  repository.CompletionRepository
	journals     repository.JournalRepository
	progressions repository.ProgressionRepository
	cache        AssignmentCache // may be nil
	events       EventPublisher  // may be nil

	premiumDailyActivities int
	now                    func() time.Time
}

// Options tunes the ritual service.
type Options struct {
	Gate                   QualityGate
	PremiumDailyActivities int
	Cache                  AssignmentCache
	Events                 EventPublisher
}

// NewRitualService creates the daily ritual engine.
func NewRitualService(
	cat *catalog.Catalog,
	assignments repository.AssignmentRepository,
	completions repository.CompletionRepository,
	journals repository.JournalRepository,
	progressions repository.ProgressionRepository,
	opts Options,
) service.RitualService {
	if opts.PremiumDailyActivities <= 0 {
		opts.PremiumDailyActivities = 2
	}
	return &ritualService{
		catalog:                cat,
		filter:                 NewEligibilityFilter(cat),
		gate:                   opts.Gate,
		assignments:            assignments,
		completions:            completions,
		journals:               journals,
		progressions:           progressions,
		cache:                  opts.Cache,
		events:                 opts.Events,
		premiumDailyActivities: opts.PremiumDailyActivities,
		now:                    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ritualService) GetOrCreateTodayAssignment(ctx context.Context, userID uuid.UUID) (*entity.DailyAssignment, error) {
	now := s.now()
	date := entity.DayKey(now)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, userID, date); ok {
			return cached, nil
		}
	}

	progression, err := s.progressions.GetOrEnroll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}

	candidates := s.filter.Candidates(progression.Tier, progression.Archetype, progression.DaysSinceEnrollment(now))
	if len(candidates) == 0 {
		// Only possible with an empty catalog; the filter otherwise
		// guarantees a fallback.
		return nil, entity.ErrNoEligibleActivity
	}

	count := progression.Tier.DailyActivityCount(s.premiumDailyActivities)
	assignment := &entity.DailyAssignment{
		UserID:      userID,
		Date:        date,
		ActivityIDs: drawActivities(candidates, count, nil),
		RerollUsed:  false,
		CreatedAt:   now,
	}

	stored, won, err := s.assignments.CreateIfAbsent(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	if won {
		metrics.AssignmentsCreated.Inc()
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"date":       date,
			"activities": stored.ActivityIDs,
		}).Info("created daily assignment")
	}

	if s.cache != nil {
		s.cache.Set(ctx, stored)
	}
	return stored, nil
}

func (s *ritualService) Reroll(ctx context.Context, userID uuid.UUID) (*entity.DailyAssignment, error) {
	now := s.now()
	date := entity.DayKey(now)

	assignment, err := s.assignments.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if assignment.RerollUsed {
		return nil, entity.ErrRerollAlreadyUsed
	}

	progression, err := s.progressions.GetOrEnroll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}

	candidates := s.filter.Candidates(progression.Tier, progression.Archetype, progression.DaysSinceEnrollment(now))
	count := progression.Tier.DailyActivityCount(s.premiumDailyActivities)
	fresh := drawActivities(candidates, count, assignment.ActivityIDs)

	// The flag transition is a compare-and-set in the store, so a
	// concurrent reroll loses with ErrRerollAlreadyUsed instead of
	// spending the reroll twice.
	updated, err := s.assignments.MarkRerolled(ctx, userID, date, fresh)
	if err != nil {
		return nil, err
	}
	metrics.RerollsUsed.Inc()

	if s.cache != nil {
		s.cache.Invalidate(ctx, userID, date)
		s.cache.Set(ctx, updated)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"date":       date,
		"activities": updated.ActivityIDs,
	}).Info("rerolled daily assignment")
	return updated, nil
}

func (s *ritualService) CompleteActivity(ctx context.Context, userID uuid.UUID, activityID string,
	engagementSeconds int32, reflectionText string, mood int32) (*service.CompletionResult, error) {

	now := s.now()
	date := entity.DayKey(now)

	assignment, err := s.assignments.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if !assignment.Includes(activityID) {
		return nil, entity.ErrActivityNotAssigned
	}

	activity, ok := s.catalog.Get(activityID)
	if !ok {
		// Assigned from an older catalog version; complete without reward
		// rather than stranding the user.
		logrus.WithField("activity_id", activityID).Warn("assigned activity missing from catalog")
		return nil, entity.ErrActivityNotAssigned
	}

	qualifies := s.gate.Qualifies(engagementSeconds, reflectionText)
	xp, gems := RewardFor(activity, qualifies)

	record := &entity.CompletionRecord{
		UserID:            userID,
		Date:              date,
		ActivityID:        activityID,
		EngagementSeconds: engagementSeconds,
		ReflectionChars:   int32(utf8.RuneCountInString(reflectionText)),
		Mood:              mood,
		Qualifies:         qualifies,
		XPGranted:         xp,
		GemsGranted:       gems,
		CompletedAt:       now,
	}

	inserted, err := s.completions.CreateIfAbsent(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}
	if !inserted {
		return nil, entity.ErrAlreadyCompleted
	}

	// One atomic store operation: currency increments plus the daily streak
	// rule. Streak credit is per day, so a second activity completed on the
	// same day only adds currency.
	progression, err := s.progressions.ApplyCompletionCredit(ctx, userID, now, xp, gems)
	if err != nil {
		return nil, fmt.Errorf("failed to apply completion credit: %w", err)
	}

	if reflectionText != "" {
		entry := &entity.JournalEntry{
			UserID:     userID,
			Date:       date,
			ActivityID: activityID,
			Text:       reflectionText,
			Mood:       mood,
			Source:     entity.JournalSourceTyped,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.journals.Upsert(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to persist journal entry: %w", err)
		}
	}

	metrics.CompletionsRecorded.WithLabelValues(fmt.Sprintf("%t", qualifies)).Inc()

	if s.events != nil {
		event := &RitualCompletedEvent{
			EventID:     uuid.New().String(),
			UserID:      userID.String(),
			ActivityID:  activityID,
			Date:        date,
			Qualifies:   qualifies,
			XPGranted:   xp,
			GemsGranted: gems,
			Streak:      progression.CurrentStreak,
			CompletedAt: now,
		}
		if err := s.events.PublishRitualCompleted(ctx, event); err != nil {
			logrus.WithError(err).Warn("failed to publish completion event")
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"activity_id": activityID,
		"qualifies":   qualifies,
		"streak":      progression.CurrentStreak,
	}).Info("recorded activity completion")

	return &service.CompletionResult{
		Qualifies:   qualifies,
		XPGranted:   xp,
		GemsGranted: gems,
		Streak:      progression.CurrentStreak,
	}, nil
}

func (s *ritualService) SaveJournal(ctx context.Context, userID uuid.UUID, activityID, text string,
	mood int32, tags []string, source entity.JournalSource) (*entity.JournalEntry, error) {

	now := s.now()
	date := entity.DayKey(now)

	assignment, err := s.assignments.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if !assignment.Includes(activityID) {
		return nil, entity.ErrActivityNotAssigned
	}

	progression, err := s.progressions.GetOrEnroll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}
	if !progression.Tier.AllowsJournalTags() {
		tags = nil
	}

	if source != entity.JournalSourceDictated {
		source = entity.JournalSourceTyped
	}

	entry := &entity.JournalEntry{
		UserID:     userID,
		Date:       date,
		ActivityID: activityID,
		Text:       text,
		Mood:       mood,
		Tags:       tags,
		Source:     source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.journals.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}
	return entry, nil
}

func (s *ritualService) GetProgressionSummary(ctx context.Context, userID uuid.UUID) (*service.ProgressionSummary, error) {
	progression, err := s.progressions.GetOrEnroll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}

	return &service.ProgressionSummary{
		XPTotal:       progression.XPTotal,
		GemTotal:      progression.GemTotal,
		Streak:        progression.EffectiveStreak(s.now()),
		LongestStreak: progression.LongestStreak,
		Tier:          progression.Tier,
	}, nil
}

func (s *ritualService) GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.CompletionRecord, int32, error) {
	records, err := s.completions.GetByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load completion history: %w", err)
	}
	total, err := s.completions.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return records, total, nil
}

func (s *ritualService) GetActivity(activityID string) (*entity.ActivityDefinition, bool) {
	return s.catalog.Get(activityID)
}

// drawActivities draws count distinct activities uniformly at random.
// Excluded ids are skipped as long as enough other candidates remain, which
// keeps a reroll from handing back the same activity when the set allows it.
func drawActivities(candidates []*entity.ActivityDefinition, count int, exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	pool := make([]*entity.ActivityDefinition, 0, len(candidates))
	for _, act := range candidates {
		if !excluded[act.ID] {
			pool = append(pool, act)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count > len(pool) {
		count = len(pool)
	}
	ids := make([]string, 0, count)
	for _, act := range pool[:count] {
		ids = append(ids, act.ID)
	}
	return ids
}
