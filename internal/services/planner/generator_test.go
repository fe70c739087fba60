package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeProfileStore struct {
	profile *models.FitnessProfile
}

func (s *fakeProfileStore) GetByUserID(_ context.Context, _ uuid.UUID) (*models.FitnessProfile, error) {
	if s.profile == nil {
		return nil, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
	}
	return s.profile, nil
}

type fakePlanStore struct {
	created *models.Plan
	nextID  int64
}

func (s *fakePlanStore) Create(_ context.Context, plan *models.Plan) error {
	s.nextID++
	plan.ID = s.nextID
	stored := *plan
	s.created = &stored
	return nil
}

type fakeGateway struct {
	response  string
	err       error
	gotPrompt []ai.Message
	calls     int
}

func (g *fakeGateway) CompleteStreaming(context.Context, []ai.Message, string) (ai.Stream, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) CompleteStructured(_ context.Context, messages []ai.Message, _ string) (string, error) {
	g.calls++
	g.gotPrompt = messages
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func strPtr(s string) *string { return &s }

func testProfile() *models.FitnessProfile {
	return &models.FitnessProfile{
		UserID:        uuid.New(),
		Age:           31,
		Gender:        models.GenderFemale,
		Height:        168,
		Weight:        64,
		Goals:         "run a half marathon",
		ActivityLevel: models.ActivityModerate,
		Equipment:     strPtr("dumbbells"),
		Availability:  45,
	}
}

func validPlanJSON(t *testing.T) string {
	t.Helper()
	days := make([]models.PlanDay, 0, models.PlanDayCount)
	for i := 1; i <= models.PlanDayCount; i++ {
		days = append(days, models.PlanDay{
			Day:         i,
			Title:       fmt.Sprintf("Day %d", i),
			Description: "Easy effort",
			Items:       []models.PlanItem{{Name: "Run", Details: "30 minutes"}},
		})
	}
	data, err := json.Marshal(models.PlanData{Days: days})
	if err != nil {
		t.Fatalf("failed to marshal plan: %v", err)
	}
	return string(data)
}

func newGenerator(profiles *fakeProfileStore, workouts, meals *fakePlanStore, gateway *fakeGateway) *Generator {
	return NewGenerator(profiles, workouts, meals, gateway, zap.NewNop())
}

func TestGenerateWorkoutPlan(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileStore{profile: testProfile()}
	workouts := &fakePlanStore{}
	meals := &fakePlanStore{}
	gateway := &fakeGateway{response: validPlanJSON(t)}

	generator := newGenerator(profiles, workouts, meals, gateway)
	planID, err := generator.Generate(context.Background(), profiles.profile.UserID, models.PlanKindWorkout)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if planID != 1 {
		t.Errorf("planID = %d, want 1", planID)
	}
	if workouts.created == nil {
		t.Fatal("expected workout plan to be persisted")
	}
	if meals.created != nil {
		t.Error("meal store should not be touched for a workout plan")
	}
	if !workouts.created.IsActive {
		t.Error("new plan should be active")
	}
	if len(workouts.created.PlanData.Days) != models.PlanDayCount {
		t.Errorf("persisted days = %d, want %d", len(workouts.created.PlanData.Days), models.PlanDayCount)
	}
	if workouts.created.UserID != profiles.profile.UserID {
		t.Error("persisted plan has wrong user")
	}
}

func TestGenerateNutritionPlanUsesMealStore(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileStore{profile: testProfile()}
	workouts := &fakePlanStore{}
	meals := &fakePlanStore{}
	gateway := &fakeGateway{response: validPlanJSON(t)}

	generator := newGenerator(profiles, workouts, meals, gateway)
	if _, err := generator.Generate(context.Background(), profiles.profile.UserID, models.PlanKindNutrition); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if meals.created == nil {
		t.Error("expected meal plan to be persisted")
	}
	if workouts.created != nil {
		t.Error("workout store should not be touched for a nutrition plan")
	}
}

func TestGenerateWithoutProfile(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{response: validPlanJSON(t)}
	generator := newGenerator(&fakeProfileStore{}, &fakePlanStore{}, &fakePlanStore{}, gateway)

	_, err := generator.Generate(context.Background(), uuid.New(), models.PlanKindWorkout)
	if !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("error = %v, want ErrProfileRequired", err)
	}
	if gateway.calls != 0 {
		t.Error("gateway should not be called without a profile")
	}
}

func TestGenerateInvalidResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{"not json", "I cannot generate a plan right now."},
		{"wrong day count", `{"days":[{"day":1,"title":"Day 1","items":[{"name":"Run"}]}]}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			profiles := &fakeProfileStore{profile: testProfile()}
			workouts := &fakePlanStore{}
			gateway := &fakeGateway{response: tt.response}

			generator := newGenerator(profiles, workouts, &fakePlanStore{}, gateway)
			_, err := generator.Generate(context.Background(), profiles.profile.UserID, models.PlanKindWorkout)
			if !errors.Is(err, ErrGenerationFailed) {
				t.Fatalf("error = %v, want ErrGenerationFailed", err)
			}
			if workouts.created != nil {
				t.Error("nothing should be persisted for an invalid response")
			}
		})
	}
}

func TestGenerateRateLimited(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileStore{profile: testProfile()}
	workouts := &fakePlanStore{}
	gateway := &fakeGateway{err: fmt.Errorf("failed to complete: %w", &ai.APIError{
		StatusCode: 429,
		Type:       "rate_limit_error",
		Message:    "slow down",
	})}

	generator := newGenerator(profiles, workouts, &fakePlanStore{}, gateway)
	_, err := generator.Generate(context.Background(), profiles.profile.UserID, models.PlanKindWorkout)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
	if errors.Is(err, ErrGenerationFailed) {
		t.Error("rate limited turns should not report ErrGenerationFailed")
	}
	if workouts.created != nil {
		t.Error("no plan should be persisted when the provider rejects the request")
	}
}

func TestGenerateRecoversWrappedJSON(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfileStore{profile: testProfile()}
	workouts := &fakePlanStore{}
	gateway := &fakeGateway{response: "Here is your plan:\n" + validPlanJSON(t) + "\nEnjoy!"}

	generator := newGenerator(profiles, workouts, &fakePlanStore{}, gateway)
	if _, err := generator.Generate(context.Background(), profiles.profile.UserID, models.PlanKindWorkout); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if workouts.created == nil {
		t.Error("expected plan to be persisted after JSON recovery")
	}
}

func TestBuildPlanPrompt(t *testing.T) {
	t.Parallel()

	profile := testProfile()
	prompt := BuildPlanPrompt(models.PlanKindWorkout, profile)

	for _, want := range []string{
		"7-day workout plan",
		"Age 31, female, 168cm, 64kg",
		"Goals: run a half marathon. Activity Level: moderate.",
		"Dietary Preferences: None. Allergies: None.",
		"Equipment: dumbbells. Availability: 45 minutes/day.",
		`"days"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\nprompt: %s", want, prompt)
		}
	}

	// Same profile renders the same prompt.
	if prompt != BuildPlanPrompt(models.PlanKindWorkout, profile) {
		t.Error("prompt should be deterministic")
	}
}
