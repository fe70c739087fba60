package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/aromi/coach-api/internal/services/planner"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	planID  int64
	err     error
	gotKind models.PlanKind
}

func (g *fakeGenerator) Generate(_ context.Context, _ uuid.UUID, kind models.PlanKind) (int64, error) {
	g.gotKind = kind
	if g.err != nil {
		return 0, g.err
	}
	return g.planID, nil
}

type fakePlanReader struct {
	plan *models.Plan
}

func (r *fakePlanReader) GetLatestByUserID(context.Context, uuid.UUID) (*models.Plan, error) {
	if r.plan == nil {
		return nil, fmt.Errorf("plan not found: %w", sql.ErrNoRows)
	}
	return r.plan, nil
}

func planRouter(generator PlanGenerator, workouts, meals PlanReader) *mux.Router {
	handler := NewPlanHandler(generator, workouts, meals, zap.NewNop())
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/api/plans").Subrouter())
	return router
}

func TestGeneratePlan(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{planID: 12}
	router := planRouter(generator, &fakePlanReader{}, &fakePlanReader{})

	user := &models.User{ID: uuid.New()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/plans/generate", `{"type":"workout"}`, user))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if generator.gotKind != models.PlanKindWorkout {
		t.Errorf("kind = %q, want workout", generator.gotKind)
	}

	var body struct {
		Message string `json:"message"`
		PlanID  int64  `json:"planId"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Message != "Plan generated successfully" {
		t.Errorf("message = %q", body.Message)
	}
	if body.PlanID != 12 {
		t.Errorf("planId = %d, want 12", body.PlanID)
	}
	if body.Type != "workout" {
		t.Errorf("type = %q, want workout", body.Type)
	}
}

func TestGeneratePlanInvalidType(t *testing.T) {
	t.Parallel()

	router := planRouter(&fakeGenerator{}, &fakePlanReader{}, &fakePlanReader{})

	user := &models.User{ID: uuid.New()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/plans/generate", `{"type":"cardio"}`, user))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGeneratePlanWithoutProfile(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{err: planner.ErrProfileRequired}
	router := planRouter(generator, &fakePlanReader{}, &fakePlanReader{})

	user := &models.User{ID: uuid.New()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/plans/generate", `{"type":"nutrition"}`, user))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != "Please complete your profile first" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestGeneratePlanGenerationFailure(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{err: fmt.Errorf("%w: bad json", planner.ErrGenerationFailed)}
	router := planRouter(generator, &fakePlanReader{}, &fakePlanReader{})

	user := &models.User{ID: uuid.New()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/plans/generate", `{"type":"workout"}`, user))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != "Failed to generate plan" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestGeneratePlanRateLimited(t *testing.T) {
	t.Parallel()

	apiErr := &ai.APIError{StatusCode: 429, Type: "rate_limit_error", Message: "slow down"}
	generator := &fakeGenerator{err: fmt.Errorf("%w: %v", planner.ErrRateLimited, apiErr)}
	router := planRouter(generator, &fakePlanReader{}, &fakePlanReader{})

	user := &models.User{ID: uuid.New()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/plans/generate", `{"type":"workout"}`, user))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != "AI service is busy, please try again shortly" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestGetLatestPlans(t *testing.T) {
	t.Parallel()

	workoutPlan := &models.Plan{ID: 4, UserID: uuid.New()}
	router := planRouter(&fakeGenerator{}, &fakePlanReader{plan: workoutPlan}, &fakePlanReader{})

	user := &models.User{ID: workoutPlan.UserID}

	t.Run("workout found", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("GET", "/api/plans/workout/latest", "", user))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var plan models.Plan
		if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if plan.ID != 4 {
			t.Errorf("plan id = %d, want 4", plan.ID)
		}
	})

	t.Run("meal missing", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("GET", "/api/plans/meal/latest", "", user))
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["message"] != "No active meal plan found" {
			t.Errorf("message = %q", body["message"])
		}
	})
}
