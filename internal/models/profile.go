package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender values accepted on a fitness profile.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Activity level values.
const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"
)

// FitnessProfile is the per-user profile driving plan generation. At most one
// live row per user; writes are upserts that overwrite all fields.
type FitnessProfile struct {
	ID                 int64     `json:"id"`
	UserID             uuid.UUID `json:"userId"`
	Age                int       `json:"age"`
	Gender             string    `json:"gender"`
	Height             int       `json:"height"` // cm
	Weight             int       `json:"weight"` // kg
	Goals              string    `json:"goals"`
	ActivityLevel      string    `json:"activityLevel"`
	DietaryPreferences *string   `json:"dietaryPreferences,omitempty"`
	Allergies          *string   `json:"allergies,omitempty"`
	Equipment          *string   `json:"equipment,omitempty"`
	Availability       int       `json:"availability"` // minutes per day
	MedicalHistory     *string   `json:"medicalHistory,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
