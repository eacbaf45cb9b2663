package repository

import (
	"context"
	"ritual-service/internal/domain/entity"

	"github.com/google/uuid"
)

// CompletionRepository defines the interface for completion record persistence.
type CompletionRepository interface {
	// CreateIfAbsent atomically inserts the record unless one already
	// exists for its (UserID, Date, ActivityID) key. Returns true when the
	// record was inserted; false means the activity was already completed.
	CreateIfAbsent(ctx context.Context, record *entity.CompletionRecord) (bool, error)

	// GetByUser retrieves completion history for a user, most recent first.
	GetByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.CompletionRecord, error)

	// CountByUser returns the total number of completions for a user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int32, error)
}
