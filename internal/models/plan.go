package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanKind selects which plan entity a generation request targets.
type PlanKind string

const (
	PlanKindWorkout   PlanKind = "workout"
	PlanKindNutrition PlanKind = "nutrition"
)

// PlanDayCount is the fixed length of a plan; a PlanData with any other
// number of days must never be persisted.
const PlanDayCount = 7

// PlanItem is a single exercise or meal within a day.
type PlanItem struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// PlanDay is one day-entry of a plan.
type PlanDay struct {
	Day         int        `json:"day"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Items       []PlanItem `json:"items"`
}

// PlanData is the wire-stable 7-day plan document stored in plan_data.
type PlanData struct {
	Days []PlanDay `json:"days"`
}

// Validate checks the structural invariant: exactly 7 day-entries, each with
// a non-empty item list whose items carry names.
func (d *PlanData) Validate() error {
	if len(d.Days) != PlanDayCount {
		return fmt.Errorf("plan must have exactly %d days, got %d", PlanDayCount, len(d.Days))
	}
	for i, day := range d.Days {
		if len(day.Items) == 0 {
			return fmt.Errorf("day %d has no items", i+1)
		}
		for j, item := range day.Items {
			if item.Name == "" {
				return fmt.Errorf("day %d item %d has no name", i+1, j+1)
			}
		}
	}
	return nil
}

// Plan is a persisted workout or meal plan row. IsActive is set true on every
// new plan and is not used to deactivate prior ones; "latest" means the row
// with the greatest created_at.
type Plan struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	PlanData  PlanData  `json:"planData"`
	StartDate time.Time `json:"startDate"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
