package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aromi/coach-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Custom enum validators; registration only fails on empty tag names
	if err := Validate.RegisterValidation("gender", validateGender); err != nil {
		panic(fmt.Sprintf("failed to register gender validator: %v", err))
	}
	if err := Validate.RegisterValidation("activity_level", validateActivityLevel); err != nil {
		panic(fmt.Sprintf("failed to register activity_level validator: %v", err))
	}
}

func validateGender(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
		return true
	default:
		return false
	}
}

func validateActivityLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.ActivitySedentary, models.ActivityLight, models.ActivityModerate,
		models.ActivityActive, models.ActivityVeryActive:
		return true
	default:
		return false
	}
}

// ValidatePlanKind validates a plan type discriminator.
func ValidatePlanKind(value string) error {
	switch models.PlanKind(value) {
	case models.PlanKindWorkout, models.PlanKindNutrition:
		return nil
	default:
		return fmt.Errorf("invalid type: %s (must be 'workout' or 'nutrition')", value)
	}
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
