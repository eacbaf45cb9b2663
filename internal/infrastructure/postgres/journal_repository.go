package postgres

import (
	"context"
	"errors"
	"fmt"
	"ritual-service/internal/domain/entity"
	"ritual-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type journalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new PostgreSQL journal repository.
func NewJournalRepository(pool *pgxpool.Pool) repository.JournalRepository {
	return &journalRepository{pool: pool}
}

func (r *journalRepository) Upsert(ctx context.Context, entry *entity.JournalEntry) error {
	// Overwrite semantics: a later submission for the same key replaces the
	// content while keeping the original created_at.
	query := `
		INSERT INTO journal_entries (
			user_id, entry_date, activity_id,
			reflection, mood, tags, source,
			created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9
		)
		ON CONFLICT (user_id, entry_date, activity_id) DO UPDATE SET
			reflection = EXCLUDED.reflection,
			mood = EXCLUDED.mood,
			tags = EXCLUDED.tags,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		entry.UserID, entry.Date, entry.ActivityID,
		entry.Text, entry.Mood, entry.Tags, string(entry.Source),
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert journal entry: %w", err)
	}

	return nil
}

func (r *journalRepository) Get(ctx context.Context, userID uuid.UUID, date, activityID string) (*entity.JournalEntry, error) {
	query := `
		SELECT
			user_id, entry_date, activity_id,
			reflection, mood, tags, source,
			created_at, updated_at
		FROM journal_entries
		WHERE user_id = $1 AND entry_date = $2 AND activity_id = $3
	`

	entry := &entity.JournalEntry{}
	var source string
	err := r.pool.QueryRow(ctx, query, userID, date, activityID).Scan(
		&entry.UserID, &entry.Date, &entry.ActivityID,
		&entry.Text, &entry.Mood, &entry.Tags, &source,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrJournalNotFound
		}
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	entry.Source = entity.JournalSource(source)

	return entry, nil
}
