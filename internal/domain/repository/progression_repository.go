package repository

import (
	"context"
	"ritual-service/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// ProgressionRepository defines the interface for the per-user progression
// record. Currency and streak writes must be single atomic operations on the
// row; the engine never does read-modify-write across round trips.
type ProgressionRepository interface {
	// Get retrieves the progression record for a user.
	// Returns entity.ErrProgressionNotFound when none exists.
	Get(ctx context.Context, userID uuid.UUID) (*entity.UserProgression, error)

	// GetOrEnroll retrieves the progression record, atomically creating a
	// default one (free tier, unspecified archetype, enrolled today) on
	// first contact.
	GetOrEnroll(ctx context.Context, userID uuid.UUID) (*entity.UserProgression, error)

	// ApplyCompletionCredit atomically adds the reward amounts and applies
	// the daily streak rule for a completion on completionDay, all in one
	// store operation, and returns the updated record. The streak rule is
	// the one expressed by entity.UserProgression.ApplyCompletion.
	ApplyCompletionCredit(ctx context.Context, userID uuid.UUID, completionDay time.Time, xp, gems int64) (*entity.UserProgression, error)

	// ZeroLapsedStreaks resets the stored current streak to zero for users
	// whose last completion date is before the given day. Longest streak
	// and last completion date are untouched. Returns the number of rows
	// updated.
	ZeroLapsedStreaks(ctx context.Context, before time.Time) (int64, error)
}
