package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aromi/coach-api/internal/models"
	"github.com/google/uuid"
)

// PlanRepository handles plan database operations. The same implementation
// backs both workout and meal plans; the table name selects which.
type PlanRepository struct {
	db    *DB
	table string
}

// NewWorkoutPlanRepository creates a repository backed by the workout_plans table
func NewWorkoutPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db, table: "workout_plans"}
}

// NewMealPlanRepository creates a repository backed by the meal_plans table
func NewMealPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db, table: "meal_plans"}
}

// Create persists a new plan and returns its ID
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	data, err := json.Marshal(plan.PlanData)
	if err != nil {
		return fmt.Errorf("failed to marshal plan data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, plan_data, start_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.table)

	err = r.db.QueryRowContext(ctx, query,
		plan.UserID,
		data,
		plan.StartDate,
		plan.IsActive,
		time.Now(),
	).Scan(&plan.ID, &plan.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetLatestByUserID retrieves the most recently created plan for a user
func (r *PlanRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*models.Plan, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, plan_data, start_date, is_active, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, r.table)

	plan := &models.Plan{}
	var data []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&plan.ID,
		&plan.UserID,
		&data,
		&plan.StartDate,
		&plan.IsActive,
		&plan.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest plan: %w", err)
	}

	if err := json.Unmarshal(data, &plan.PlanData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan data: %w", err)
	}

	return plan, nil
}
