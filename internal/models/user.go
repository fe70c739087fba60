package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account. Identity is established by the
// external auth provider; ProviderID carries the provider's subject claim.
type User struct {
	ID         uuid.UUID `json:"id"`
	ProviderID string    `json:"providerId"`
	Email      string    `json:"email"`
	Name       *string   `json:"name,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
