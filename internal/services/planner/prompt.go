package planner

import (
	"fmt"

	"github.com/aromi/coach-api/internal/models"
)

// GenerateInstruction is the user turn sent alongside the profile prompt
const GenerateInstruction = "Generate the plan."

func orNone(value *string) string {
	if value == nil || *value == "" {
		return "None"
	}
	return *value
}

// BuildPlanPrompt renders the system prompt for plan generation from a
// user's fitness profile.
func BuildPlanPrompt(kind models.PlanKind, profile *models.FitnessProfile) string {
	return fmt.Sprintf(`You are an expert fitness and nutrition coach. Generate a 7-day %s plan based on the user's profile.
Profile: Age %d, %s, %dcm, %dkg.
Goals: %s. Activity Level: %s.
Dietary Preferences: %s. Allergies: %s.
Equipment: %s. Availability: %d minutes/day.

Respond ONLY with valid JSON matching this structure:
{
  "days": [
    {
      "day": 1,
      "title": "Day Title",
      "description": "Overview of the day",
      "items": [
        { "name": "Item Name", "details": "Reps/Sets or Ingredients/Calories" }
      ]
    }
  ]
}`,
		kind,
		profile.Age,
		profile.Gender,
		profile.Height,
		profile.Weight,
		profile.Goals,
		profile.ActivityLevel,
		orNone(profile.DietaryPreferences),
		orNone(profile.Allergies),
		orNone(profile.Equipment),
		profile.Availability,
	)
}
