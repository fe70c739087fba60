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
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type fakeProfileStore struct {
	profile  *models.FitnessProfile
	upserted *models.FitnessProfile
}

func (s *fakeProfileStore) GetByUserID(_ context.Context, _ uuid.UUID) (*models.FitnessProfile, error) {
	if s.profile == nil {
		return nil, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
	}
	return s.profile, nil
}

func (s *fakeProfileStore) Upsert(_ context.Context, profile *models.FitnessProfile) error {
	profile.ID = 1
	stored := *profile
	s.upserted = &stored
	s.profile = &stored
	return nil
}

func profileRouter(store ProfileStore) *mux.Router {
	handler := NewProfileHandler(store)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/api/profile").Subrouter())
	return router
}

func TestGetProfileNotFound(t *testing.T) {
	t.Parallel()

	router := profileRouter(&fakeProfileStore{})

	user := &models.User{ID: uuid.New()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/api/profile", "", user))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != "Profile not found" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestUpsertProfile(t *testing.T) {
	t.Parallel()

	store := &fakeProfileStore{}
	router := profileRouter(store)

	user := &models.User{ID: uuid.New()}
	body := `{
		"age": 28,
		"gender": "male",
		"height": 180,
		"weight": 78,
		"goals": "build strength",
		"activityLevel": "moderate",
		"equipment": "barbell, bench",
		"availability": 60
	}`

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/profile", body, user))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if store.upserted == nil {
		t.Fatal("expected profile to be persisted")
	}
	if store.upserted.UserID != user.ID {
		t.Error("profile not bound to the requesting user")
	}
	if store.upserted.Equipment == nil || *store.upserted.Equipment != "barbell, bench" {
		t.Errorf("equipment = %v", store.upserted.Equipment)
	}

	// The stored profile is now readable.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/api/profile", "", user))
	if w.Code != http.StatusOK {
		t.Errorf("get after upsert: status = %d, want 200", w.Code)
	}
}

func TestUpsertProfileValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"age": 28}`},
		{"bad gender", `{"age":28,"gender":"robot","height":180,"weight":78,"goals":"x","activityLevel":"moderate","availability":60}`},
		{"bad activity level", `{"age":28,"gender":"male","height":180,"weight":78,"goals":"x","activityLevel":"couch","availability":60}`},
		{"age too low", `{"age":5,"gender":"male","height":180,"weight":78,"goals":"x","activityLevel":"moderate","availability":60}`},
		{"unknown field", `{"age":28,"gender":"male","height":180,"weight":78,"goals":"x","activityLevel":"moderate","availability":60,"bogus":true}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeProfileStore{}
			router := profileRouter(store)

			user := &models.User{ID: uuid.New()}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest("POST", "/api/profile", tt.body, user))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if store.upserted != nil {
				t.Error("invalid profile should not be persisted")
			}
		})
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	t.Parallel()

	router := profileRouter(&fakeProfileStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/api/profile", "", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
