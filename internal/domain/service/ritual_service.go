package service

import (
	"context"
	"ritual-service/internal/domain/entity"

	"github.com/google/uuid"
)

// CompletionResult is the outcome of a completion attempt.
type CompletionResult struct {
	Qualifies   bool
	XPGranted   int64
	GemsGranted int64
	Streak      int32
}

// ProgressionSummary is the user-facing progression snapshot.
type ProgressionSummary struct {
	XPTotal       int64
	GemTotal      int64
	Streak        int32
	LongestStreak int32
	Tier          entity.Tier
}

// RitualService defines the interface for the daily ritual engine.
type RitualService interface {
	// GetOrCreateTodayAssignment returns today's assignment for the user,
	// creating it on first call of the day. Safe under concurrent
	// invocation: all callers observe the same chosen activities.
	GetOrCreateTodayAssignment(ctx context.Context, userID uuid.UUID) (*entity.DailyAssignment, error)

	// Reroll replaces today's assignment with a fresh draw, once per day.
	// Returns entity.ErrRerollAlreadyUsed on a second attempt.
	Reroll(ctx context.Context, userID uuid.UUID) (*entity.DailyAssignment, error)

	// CompleteActivity records a completion attempt for one of today's
	// assigned activities, mints rewards when the quality gate passes and
	// credits the daily streak. Returns entity.ErrAlreadyCompleted for a
	// repeated attempt.
	CompleteActivity(ctx context.Context, userID uuid.UUID, activityID string,
		engagementSeconds int32, reflectionText string, mood int32) (*CompletionResult, error)

	// SaveJournal stores or overwrites the reflection for one of today's
	// assigned activities, independent of reward qualification. Tags are
	// dropped for tiers that do not unlock them.
	SaveJournal(ctx context.Context, userID uuid.UUID, activityID, text string,
		mood int32, tags []string, source entity.JournalSource) (*entity.JournalEntry, error)

	// GetProgressionSummary returns currency totals and streak state.
	GetProgressionSummary(ctx context.Context, userID uuid.UUID) (*ProgressionSummary, error)

	// GetHistory returns the user's completion history, most recent first.
	GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.CompletionRecord, int32, error)

	// GetActivity resolves a catalog activity by id.
	GetActivity(activityID string) (*entity.ActivityDefinition, bool)
}
