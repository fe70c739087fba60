package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aromi/coach-api/internal/models"
)

// RatelimitConfigRepository handles rate limit configuration stored in the database
type RatelimitConfigRepository struct {
	db *DB
}

// NewRatelimitConfigRepository creates a new rate limit config repository
func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// Get retrieves the rate limit configuration for a key
func (r *RatelimitConfigRepository) Get(ctx context.Context, configKey string) (*models.RatelimitConfig, error) {
	config := &models.RatelimitConfig{}
	query := `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config
		WHERE config_key = $1
	`

	err := r.db.QueryRowContext(ctx, query, configKey).Scan(
		&config.ConfigKey,
		&config.Rate,
		&config.CreatedAt,
		&config.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ratelimit config not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ratelimit config: %w", err)
	}

	return config, nil
}

// Set creates or updates the rate limit configuration for a key
func (r *RatelimitConfigRepository) Set(ctx context.Context, configKey, rate string) error {
	query := `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, configKey, rate, time.Now()); err != nil {
		return fmt.Errorf("failed to set ratelimit config: %w", err)
	}

	return nil
}

// List retrieves all rate limit configurations
func (r *RatelimitConfigRepository) List(ctx context.Context) ([]*models.RatelimitConfig, error) {
	query := `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config
		ORDER BY config_key
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratelimit configs: %w", err)
	}
	defer rows.Close()

	configs := []*models.RatelimitConfig{}
	for rows.Next() {
		config := &models.RatelimitConfig{}
		err := rows.Scan(
			&config.ConfigKey,
			&config.Rate,
			&config.CreatedAt,
			&config.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ratelimit config: %w", err)
		}
		configs = append(configs, config)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratelimit configs: %w", err)
	}

	return configs, nil
}
