package postgres

import (
	"context"
	"errors"
	"fmt"
	"ritual-service/internal/domain/entity"
	"ritual-service/internal/domain/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type progressionRepository struct {
	pool *pgxpool.Pool
}

// NewProgressionRepository creates a new PostgreSQL progression repository.
func NewProgressionRepository(pool *pgxpool.Pool) repository.ProgressionRepository {
	return &progressionRepository{pool: pool}
}

const progressionColumns = `
	user_id, xp_total, gem_total,
	current_streak, longest_streak, last_completion_date,
	tier, archetype, enrolled_at,
	created_at, updated_at
`

func (r *progressionRepository) Get(ctx context.Context, userID uuid.UUID) (*entity.UserProgression, error) {
	query := `SELECT ` + progressionColumns + ` FROM user_progressions WHERE user_id = $1`

	progression, err := scanProgression(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProgressionNotFound
		}
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}

	return progression, nil
}

func (r *progressionRepository) GetOrEnroll(ctx context.Context, userID uuid.UUID) (*entity.UserProgression, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO user_progressions (
			user_id, xp_total, gem_total,
			current_streak, longest_streak,
			tier, archetype, enrolled_at,
			created_at, updated_at
		) VALUES (
			$1, 0, 0,
			0, 0,
			$2, $3, $4,
			$4, $4
		)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, userID, entity.TierFree.String(), entity.ArchetypeUnspecified.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to enroll user: %w", err)
	}

	return r.Get(ctx, userID)
}

func (r *progressionRepository) ApplyCompletionCredit(ctx context.Context, userID uuid.UUID, completionDay time.Time, xp, gems int64) (*entity.UserProgression, error) {
	day := entity.DayKey(completionDay)

	// Currency and streak are applied in one statement so a failure never
	// leaves a reward partially granted. The CASE mirrors the gap rule on
	// entity.UserProgression.ApplyCompletion; a NULL last_completion_date
	// falls through to ELSE and starts the streak at 1.
	query := `
		UPDATE user_progressions SET
			xp_total = xp_total + $3,
			gem_total = gem_total + $4,
			current_streak = CASE
				WHEN last_completion_date = $2::date THEN current_streak
				WHEN last_completion_date = $2::date - 1 THEN current_streak + 1
				ELSE 1
			END,
			longest_streak = GREATEST(longest_streak, CASE
				WHEN last_completion_date = $2::date THEN current_streak
				WHEN last_completion_date = $2::date - 1 THEN current_streak + 1
				ELSE 1
			END),
			last_completion_date = GREATEST(COALESCE(last_completion_date, $2::date), $2::date),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + progressionColumns

	progression, err := scanProgression(r.pool.QueryRow(ctx, query, userID, day, xp, gems))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProgressionNotFound
		}
		return nil, fmt.Errorf("failed to apply completion credit: %w", err)
	}

	return progression, nil
}

func (r *progressionRepository) ZeroLapsedStreaks(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE user_progressions SET
			current_streak = 0,
			updated_at = NOW()
		WHERE current_streak > 0
		  AND (last_completion_date IS NULL OR last_completion_date < $1::date)
	`

	tag, err := r.pool.Exec(ctx, query, entity.DayKey(before))
	if err != nil {
		return 0, fmt.Errorf("failed to zero lapsed streaks: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanProgression(row pgx.Row) (*entity.UserProgression, error) {
	progression := &entity.UserProgression{}
	var tier, archetype string

	err := row.Scan(
		&progression.UserID, &progression.XPTotal, &progression.GemTotal,
		&progression.CurrentStreak, &progression.LongestStreak, &progression.LastCompletionDate,
		&tier, &archetype, &progression.EnrolledAt,
		&progression.CreatedAt, &progression.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if progression.Tier, err = entity.ParseTier(tier); err != nil {
		return nil, fmt.Errorf("stored progression invalid: %w", err)
	}
	if progression.Archetype, err = entity.ParseArchetype(archetype); err != nil {
		return nil, fmt.Errorf("stored progression invalid: %w", err)
	}

	return progression, nil
}
