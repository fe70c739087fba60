package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/aromi/coach-api/internal/models"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// UserStore is the persistence surface auth needs to resolve session
// subjects into application users.
type UserStore interface {
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// Auth creates authentication middleware that validates session tokens
// signed with the shared HS256 secret and loads or creates the user.
func Auth(users UserStore, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondAuthError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondAuthError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse([]byte(parts[1]),
				jwt.WithKey(jwa.HS256, secret),
				jwt.WithValidate(true),
			)
			if err != nil {
				respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			subject := token.Subject()
			if subject == "" {
				respondAuthError(w, http.StatusUnauthorized, "Token has no subject")
				return
			}

			var email, name string
			if v, ok := token.Get("email"); ok {
				email, _ = v.(string)
			}
			if v, ok := token.Get("name"); ok {
				name, _ = v.(string)
			}

			ctx := r.Context()
			user, err := users.GetByProviderID(ctx, subject)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					user = &models.User{
						ID:         uuid.New(),
						ProviderID: subject,
						Email:      email,
					}
					if name != "" {
						user.Name = &name
					}
					if err := users.Create(ctx, user); err != nil {
						respondAuthError(w, http.StatusInternalServerError, "Failed to create user")
						return
					}
				} else {
					log.Printf("Database error while fetching user: %v", err)
					respondAuthError(w, http.StatusInternalServerError, "Database error")
					return
				}
			} else {
				updateNeeded := false
				if email != "" && user.Email != email {
					user.Email = email
					updateNeeded = true
				}
				if name != "" && (user.Name == nil || *user.Name != name) {
					user.Name = &name
					updateNeeded = true
				}
				if updateNeeded {
					if err := users.Update(ctx, user); err != nil {
						log.Printf("Failed to refresh user claims: %v", err)
					}
				}
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
