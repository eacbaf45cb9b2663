package postgres

import (
	"context"
	"fmt"
	"ritual-service/internal/domain/entity"
	"ritual-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type completionRepository struct {
	pool *pgxpool.Pool
}

// NewCompletionRepository creates a new PostgreSQL completion repository.
func NewCompletionRepository(pool *pgxpool.Pool) repository.CompletionRepository {
	return &completionRepository{pool: pool}
}

func (r *completionRepository) CreateIfAbsent(ctx context.Context, record *entity.CompletionRecord) (bool, error) {
	// Idempotency lives in the primary key: a second completion attempt
	// for the same (user, date, activity) inserts nothing.
	query := `
		INSERT INTO completion_records (
			user_id, assigned_date, activity_id,
			engagement_seconds, reflection_chars, mood,
			qualifies, xp_granted, gems_granted, completed_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9, $10
		)
		ON CONFLICT (user_id, assigned_date, activity_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		record.UserID, record.Date, record.ActivityID,
		record.EngagementSeconds, record.ReflectionChars, record.Mood,
		record.Qualifies, record.XPGranted, record.GemsGranted, record.CompletedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create completion record: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *completionRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.CompletionRecord, error) {
	if limit <= 0 {
		limit = 30 // Default limit
	}

	query := `
		SELECT
			user_id, assigned_date, activity_id,
			engagement_seconds, reflection_chars, mood,
			qualifies, xp_granted, gems_granted, completed_at
		FROM completion_records
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion records: %w", err)
	}
	defer rows.Close()

	var records []*entity.CompletionRecord
	for rows.Next() {
		record := &entity.CompletionRecord{}
		err := rows.Scan(
			&record.UserID, &record.Date, &record.ActivityID,
			&record.EngagementSeconds, &record.ReflectionChars, &record.Mood,
			&record.Qualifies, &record.XPGranted, &record.GemsGranted, &record.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completion records: %w", err)
	}

	return records, nil
}

func (r *completionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int32, error) {
	query := `
		SELECT COUNT(*) FROM completion_records WHERE user_id = $1
	`

	var count int32
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completion records: %w", err)
	}

	return count, nil
}
