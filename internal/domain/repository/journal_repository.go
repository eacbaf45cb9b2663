package repository

import (
	"context"
	"ritual-service/internal/domain/entity"

	"github.com/google/uuid"
)

// JournalRepository defines the interface for journal entry persistence.
type JournalRepository interface {
	// Upsert stores the entry, overwriting any existing entry for the same
	// (UserID, Date, ActivityID) key. The UI allows editing before final
	// save, so later submissions replace rather than append.
	Upsert(ctx context.Context, entry *entity.JournalEntry) error

	// Get retrieves the entry for a key.
	// Returns entity.ErrJournalNotFound when none exists.
	Get(ctx context.Context, userID uuid.UUID, date, activityID string) (*entity.JournalEntry, error)
}
