package repository

import (
	"context"
	"ritual-service/internal/domain/entity"

	"github.com/google/uuid"
)

// AssignmentRepository defines the interface for daily assignment persistence.
// The store must provide an atomic insert-if-absent on the (user, date) key;
// that single primitive is what makes concurrent first-access safe.
type AssignmentRepository interface {
	// CreateIfAbsent atomically inserts the assignment unless one already
	// exists for its (UserID, Date) key. It returns the stored assignment
	// and true when the given record won the insert; on a lost race it
	// returns the winner's record and false.
	CreateIfAbsent(ctx context.Context, assignment *entity.DailyAssignment) (*entity.DailyAssignment, bool, error)

	// Get retrieves the assignment for a user on a date.
	// Returns entity.ErrAssignmentNotFound when none exists.
	Get(ctx context.Context, userID uuid.UUID, date string) (*entity.DailyAssignment, error)

	// MarkRerolled atomically replaces the activity set and flips the
	// reroll flag false->true. Returns entity.ErrRerollAlreadyUsed when the
	// flag was already set and entity.ErrAssignmentNotFound when no
	// assignment exists.
	MarkRerolled(ctx context.Context, userID uuid.UUID, date string, activityIDs []string) (*entity.DailyAssignment, error)
}
