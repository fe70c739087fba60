package models

import (
	"strings"
	"testing"
)

func makeDays(n int) []PlanDay {
	days := make([]PlanDay, 0, n)
	for i := 1; i <= n; i++ {
		days = append(days, PlanDay{
			Day:         i,
			Title:       "Day",
			Description: "desc",
			Items:       []PlanItem{{Name: "Squat", Details: "3x8"}},
		})
	}
	return days
}

func TestPlanDataValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    PlanData
		wantErr string
	}{
		{
			name: "valid seven day plan",
			data: PlanData{Days: makeDays(7)},
		},
		{
			name:    "empty days",
			data:    PlanData{},
			wantErr: "exactly 7 days",
		},
		{
			name:    "too few days",
			data:    PlanData{Days: makeDays(5)},
			wantErr: "exactly 7 days",
		},
		{
			name:    "too many days",
			data:    PlanData{Days: makeDays(8)},
			wantErr: "exactly 7 days",
		},
		{
			name: "day with no items",
			data: func() PlanData {
				d := PlanData{Days: makeDays(7)}
				d.Days[3].Items = nil
				return d
			}(),
			wantErr: "day 4 has no items",
		},
		{
			name: "item without name",
			data: func() PlanData {
				d := PlanData{Days: makeDays(7)}
				d.Days[6].Items = []PlanItem{{Details: "only details"}}
				return d
			}(),
			wantErr: "day 7 item 1 has no name",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.data.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid plan, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
