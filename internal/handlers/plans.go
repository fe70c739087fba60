package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aromi/coach-api/internal/middleware"
	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/aromi/coach-api/internal/services/planner"
	"github.com/aromi/coach-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PlanGenerator produces and persists a plan, returning its ID
type PlanGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, kind models.PlanKind) (int64, error)
}

// PlanReader loads persisted plans
type PlanReader interface {
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*models.Plan, error)
}

// PlanHandler handles plan generation and retrieval requests
type PlanHandler struct {
	generator    PlanGenerator
	workoutPlans PlanReader
	mealPlans    PlanReader
	logger       *zap.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(generator PlanGenerator, workoutPlans, mealPlans PlanReader, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		generator:    generator,
		workoutPlans: workoutPlans,
		mealPlans:    mealPlans,
		logger:       logger,
	}
}

// RegisterRoutes registers plan routes on the given router.
// The router should already carry the /plans prefix.
func (h *PlanHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate", h.GeneratePlan).Methods("POST")
	r.HandleFunc("/workout/latest", h.GetLatestWorkoutPlan).Methods("GET")
	r.HandleFunc("/meal/latest", h.GetLatestMealPlan).Methods("GET")
}

// GeneratePlanRequest represents a plan generation request
type GeneratePlanRequest struct {
	Type string `json:"type" validate:"required"`
}

// GeneratePlan generates a new plan of the requested kind
func (h *PlanHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GeneratePlanRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidatePlanKind(req.Type); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind := models.PlanKind(req.Type)

	planID, err := h.generator.Generate(r.Context(), user.ID, kind)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrProfileRequired):
			respondError(w, http.StatusBadRequest, "Please complete your profile first")
		case errors.Is(err, planner.ErrRateLimited):
			retryAfter := 60 * time.Second
			if apiErr := ai.ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil {
				retryAfter = *apiErr.RetryAfter
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			respondError(w, http.StatusTooManyRequests, "AI service is busy, please try again shortly")
		case errors.Is(err, planner.ErrGenerationFailed):
			respondError(w, http.StatusInternalServerError, "Failed to generate plan")
		default:
			h.logger.Error("plan_generation_failed",
				zap.String("user_id", user.ID.String()),
				zap.String("plan_type", string(kind)),
				zap.Error(err),
			)
			respondError(w, http.StatusInternalServerError, "Failed to generate plan")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Plan generated successfully",
		"planId":  planID,
		"type":    kind,
	})
}

// GetLatestWorkoutPlan returns the user's most recent workout plan
func (h *PlanHandler) GetLatestWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	h.getLatestPlan(w, r, h.workoutPlans, "No active workout plan found")
}

// GetLatestMealPlan returns the user's most recent meal plan
func (h *PlanHandler) GetLatestMealPlan(w http.ResponseWriter, r *http.Request) {
	h.getLatestPlan(w, r, h.mealPlans, "No active meal plan found")
}

func (h *PlanHandler) getLatestPlan(w http.ResponseWriter, r *http.Request, reader PlanReader, notFoundMessage string) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	plan, err := reader.GetLatestByUserID(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, notFoundMessage)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}
