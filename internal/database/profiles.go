package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aromi/coach-api/internal/models"
	"github.com/google/uuid"
)

// ProfileRepository handles fitness profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves the fitness profile for a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FitnessProfile, error) {
	profile := &models.FitnessProfile{}
	query := `
		SELECT id, user_id, age, gender, height, weight, goals, activity_level,
		       dietary_preferences, allergies, equipment, medical_history,
		       availability, updated_at
		FROM fitness_profiles
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Age,
		&profile.Gender,
		&profile.Height,
		&profile.Weight,
		&profile.Goals,
		&profile.ActivityLevel,
		&profile.DietaryPreferences,
		&profile.Allergies,
		&profile.Equipment,
		&profile.MedicalHistory,
		&profile.Availability,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Upsert creates or replaces the fitness profile for a user
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.FitnessProfile) error {
	query := `
		INSERT INTO fitness_profiles (
			user_id, age, gender, height, weight, goals, activity_level,
			dietary_preferences, allergies, equipment, medical_history,
			availability, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			goals = EXCLUDED.goals,
			activity_level = EXCLUDED.activity_level,
			dietary_preferences = EXCLUDED.dietary_preferences,
			allergies = EXCLUDED.allergies,
			equipment = EXCLUDED.equipment,
			medical_history = EXCLUDED.medical_history,
			availability = EXCLUDED.availability,
			updated_at = EXCLUDED.updated_at
		RETURNING id, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Age,
		profile.Gender,
		profile.Height,
		profile.Weight,
		profile.Goals,
		profile.ActivityLevel,
		profile.DietaryPreferences,
		profile.Allergies,
		profile.Equipment,
		profile.MedicalHistory,
		profile.Availability,
		time.Now(),
	).Scan(&profile.ID, &profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}
