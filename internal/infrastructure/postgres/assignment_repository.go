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

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(pool *pgxpool.Pool) repository.AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) CreateIfAbsent(ctx context.Context, assignment *entity.DailyAssignment) (*entity.DailyAssignment, bool, error) {
	// The primary key on (user_id, assigned_date) plus DO NOTHING is the
	// conditional insert: exactly one concurrent writer wins, the rest read
	// back the winner's row.
	query := `
		INSERT INTO daily_assignments (
			user_id, assigned_date, activity_ids, reroll_used, created_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
		ON CONFLICT (user_id, assigned_date) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		assignment.UserID, assignment.Date, assignment.ActivityIDs,
		assignment.RerollUsed, assignment.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create assignment: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return assignment, true, nil
	}

	stored, err := r.Get(ctx, assignment.UserID, assignment.Date)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *assignmentRepository) Get(ctx context.Context, userID uuid.UUID, date string) (*entity.DailyAssignment, error) {
	query := `
		SELECT user_id, assigned_date, activity_ids, reroll_used, created_at
		FROM daily_assignments
		WHERE user_id = $1 AND assigned_date = $2
	`

	assignment := &entity.DailyAssignment{}
	err := r.pool.QueryRow(ctx, query, userID, date).Scan(
		&assignment.UserID, &assignment.Date, &assignment.ActivityIDs,
		&assignment.RerollUsed, &assignment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return assignment, nil
}

func (r *assignmentRepository) MarkRerolled(ctx context.Context, userID uuid.UUID, date string, activityIDs []string) (*entity.DailyAssignment, error) {
	// Compare-and-set on the reroll flag: the WHERE clause makes the
	// false->true transition happen at most once per (user, date).
	query := `
		UPDATE daily_assignments
		SET activity_ids = $3, reroll_used = TRUE
		WHERE user_id = $1 AND assigned_date = $2 AND reroll_used = FALSE
		RETURNING user_id, assigned_date, activity_ids, reroll_used, created_at
	`

	assignment := &entity.DailyAssignment{}
	err := r.pool.QueryRow(ctx, query, userID, date, activityIDs).Scan(
		&assignment.UserID, &assignment.Date, &assignment.ActivityIDs,
		&assignment.RerollUsed, &assignment.CreatedAt,
	)
	if err == nil {
		return assignment, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark reroll: %w", err)
	}

	// Zero rows updated: either no assignment exists or the reroll was
	// already spent. Read once to tell the two apart.
	if _, getErr := r.Get(ctx, userID, date); getErr != nil {
		return nil, getErr
	}
	return nil, entity.ErrRerollAlreadyUsed
}
