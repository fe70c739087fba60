package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aromi/coach-api/internal/models"
)

const defaultCorsConfigKey = "default"

// CorsConfigRepository handles CORS configuration stored in the database
type CorsConfigRepository struct {
	db *DB
}

// NewCorsConfigRepository creates a new CORS config repository
func NewCorsConfigRepository(db *DB) *CorsConfigRepository {
	return &CorsConfigRepository{db: db}
}

// Get retrieves the CORS configuration
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	config := &models.CorsConfig{}
	query := `
		SELECT config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at
		FROM cors_config
		WHERE config_key = $1
	`

	err := r.db.QueryRowContext(ctx, query, defaultCorsConfigKey).Scan(
		&config.ConfigKey,
		&config.AllowedOrigins,
		&config.AllowCredentials,
		&config.MaxAge,
		&config.CreatedAt,
		&config.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cors config not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cors config: %w", err)
	}

	return config, nil
}

// Set creates or updates the CORS configuration
func (r *CorsConfigRepository) Set(ctx context.Context, config *models.CorsConfig) error {
	origins := strings.TrimSpace(config.AllowedOrigins)
	if origins == "" {
		return fmt.Errorf("allowed_origins cannot be empty")
	}

	query := `
		INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, defaultCorsConfigKey, origins, config.AllowCredentials, config.MaxAge, time.Now()); err != nil {
		return fmt.Errorf("failed to set cors config: %w", err)
	}

	return nil
}
