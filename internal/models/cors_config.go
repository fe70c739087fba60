package models

import (
	"strings"
	"time"
)

// CorsConfig is the DB-backed CORS policy. AllowedOrigins is a
// comma-separated list.
type CorsConfig struct {
	ConfigKey        string    `json:"config_key"`
	AllowedOrigins   string    `json:"allowed_origins"`
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OriginList returns the allowed origins as a slice.
func (c *CorsConfig) OriginList() []string {
	return SplitOrigins(c.AllowedOrigins)
}

// SplitOrigins splits a comma-separated origin list, trimming whitespace
// and dropping duplicates and empty entries.
func SplitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" || seen[origin] {
			continue
		}
		seen[origin] = true
		out = append(out, origin)
	}
	return out
}
