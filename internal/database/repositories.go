package database

import (
	"github.com/aromi/coach-api/internal/middleware"
	"github.com/aromi/coach-api/internal/services/coach"
	"github.com/aromi/coach-api/internal/services/planner"
)

// Compile-time checks that repositories satisfy the service interfaces.
var (
	_ coach.ConversationStore    = (*ConversationRepository)(nil)
	_ planner.ProfileStore       = (*ProfileRepository)(nil)
	_ planner.PlanStore          = (*PlanRepository)(nil)
	_ middleware.UserStore       = (*UserRepository)(nil)
	_ middleware.CORSConfigStore = (*CorsConfigRepository)(nil)
)
