package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/aromi/coach-api/internal/middleware"
	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ProfileStore is the persistence surface profile handlers need
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FitnessProfile, error)
	Upsert(ctx context.Context, profile *models.FitnessProfile) error
}

// ProfileHandler handles fitness profile requests
type ProfileHandler struct {
	profiles ProfileStore
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes registers profile routes on the given router.
// The router should already carry the /profile prefix.
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProfile).Methods("GET")
	r.HandleFunc("", h.UpsertProfile).Methods("POST")
}

// ProfileRequest represents a profile create/replace request
type ProfileRequest struct {
	Age                int     `json:"age" validate:"required,min=13,max=120"`
	Gender             string  `json:"gender" validate:"required,gender"`
	Height             int     `json:"height" validate:"required,min=50,max=280"`
	Weight             int     `json:"weight" validate:"required,min=20,max=500"`
	Goals              string  `json:"goals" validate:"required,min=1,max=1000"`
	ActivityLevel      string  `json:"activityLevel" validate:"required,activity_level"`
	DietaryPreferences *string `json:"dietaryPreferences,omitempty" validate:"omitempty,max=1000"`
	Allergies          *string `json:"allergies,omitempty" validate:"omitempty,max=1000"`
	Equipment          *string `json:"equipment,omitempty" validate:"omitempty,max=1000"`
	MedicalHistory     *string `json:"medicalHistory,omitempty" validate:"omitempty,max=2000"`
	Availability       int     `json:"availability" validate:"required,min=5,max=1440"`
}

// GetProfile returns the authenticated user's fitness profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Profile not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpsertProfile creates or replaces the authenticated user's profile
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	profile := &models.FitnessProfile{
		UserID:             user.ID,
		Age:                req.Age,
		Gender:             req.Gender,
		Height:             req.Height,
		Weight:             req.Weight,
		Goals:              validation.SanitizeText(req.Goals),
		ActivityLevel:      req.ActivityLevel,
		DietaryPreferences: sanitizeOptional(req.DietaryPreferences),
		Allergies:          sanitizeOptional(req.Allergies),
		Equipment:          sanitizeOptional(req.Equipment),
		MedicalHistory:     sanitizeOptional(req.MedicalHistory),
		Availability:       req.Availability,
	}

	if err := h.profiles.Upsert(r.Context(), profile); err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func sanitizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	sanitized := validation.SanitizeText(*value)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}
