// Package planner generates structured 7-day workout and nutrition
// plans from a user's fitness profile.
package planner

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrProfileRequired indicates the user has no fitness profile yet
	ErrProfileRequired = errors.New("fitness profile required")
	// ErrGenerationFailed indicates the model returned an unusable plan
	ErrGenerationFailed = errors.New("plan generation failed")
	// ErrRateLimited indicates the AI provider rejected the request with a 429
	ErrRateLimited = errors.New("ai provider rate limited")
)

// ProfileStore loads fitness profiles
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FitnessProfile, error)
}

// PlanStore persists generated plans
type PlanStore interface {
	Create(ctx context.Context, plan *models.Plan) error
}

// Generator turns a fitness profile into a persisted 7-day plan
type Generator struct {
	profiles     ProfileStore
	workoutPlans PlanStore
	mealPlans    PlanStore
	gateway      ai.Gateway
	logger       *zap.Logger
}

// NewGenerator creates a new plan generator
func NewGenerator(profiles ProfileStore, workoutPlans, mealPlans PlanStore, gateway ai.Gateway, logger *zap.Logger) *Generator {
	return &Generator{
		profiles:     profiles,
		workoutPlans: workoutPlans,
		mealPlans:    mealPlans,
		gateway:      gateway,
		logger:       logger,
	}
}

// Generate builds a plan of the given kind for the user and returns the
// persisted plan ID. The new plan becomes the user's latest; older plans
// are kept for history.
func (g *Generator) Generate(ctx context.Context, userID uuid.UUID, kind models.PlanKind) (int64, error) {
	profile, err := g.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProfileRequired
		}
		return 0, fmt.Errorf("failed to load profile: %w", err)
	}

	prompt := BuildPlanPrompt(kind, profile)
	messages := []ai.Message{
		ai.SystemMessage(prompt),
		ai.UserMessage(GenerateInstruction),
	}

	start := time.Now()
	content, err := g.gateway.CompleteStructured(ctx, messages, "")
	if err != nil {
		g.logger.Warn("plan_generation_api_failed",
			zap.String("user_id", userID.String()),
			zap.String("plan_type", string(kind)),
			zap.Error(err),
		)
		if ai.IsRateLimitError(err) {
			return 0, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	planData, err := parsePlanResponse(content)
	if err != nil {
		g.logger.Warn("plan_generation_invalid_response",
			zap.String("user_id", userID.String()),
			zap.String("plan_type", string(kind)),
			zap.Int("response_length", len(content)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	store := g.workoutPlans
	if kind == models.PlanKindNutrition {
		store = g.mealPlans
	}

	plan := &models.Plan{
		UserID:    userID,
		PlanData:  *planData,
		StartDate: time.Now(),
		IsActive:  true,
	}
	if err := store.Create(ctx, plan); err != nil {
		return 0, fmt.Errorf("failed to persist plan: %w", err)
	}

	g.logger.Info("plan_generated",
		zap.String("user_id", userID.String()),
		zap.String("plan_type", string(kind)),
		zap.Int64("plan_id", plan.ID),
		zap.Duration("duration", time.Since(start)),
	)

	return plan.ID, nil
}

// parsePlanResponse decodes the model output into plan data. Models
// sometimes wrap the JSON in prose, so on a parse failure the content is
// retried from the first '{' to the last '}'.
func parsePlanResponse(content string) (*models.PlanData, error) {
	raw := content
	var planData models.PlanData
	if err := json.Unmarshal([]byte(raw), &planData); err != nil {
		start := bytes.Index([]byte(raw), []byte("{"))
		end := bytes.LastIndex([]byte(raw), []byte("}"))
		if start == -1 || end == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse plan response: %w", err)
		}
		raw = raw[start : end+1]
		if err := json.Unmarshal([]byte(raw), &planData); err != nil {
			return nil, fmt.Errorf("failed to parse plan response: %w", err)
		}
	}

	if err := planData.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan data: %w", err)
	}

	return &planData, nil
}
