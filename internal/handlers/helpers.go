// Package handlers implements the HTTP surface of the coach API.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// respondJSON writes a JSON payload with the given status
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondError writes an error payload shaped {"message": ...}
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondValidationError writes a 400 with the first violated field named
func respondValidationError(w http.ResponseWriter, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Validation failed",
			"field":   verrs[0].Field(),
		})
		return
	}
	respondError(w, http.StatusBadRequest, "Validation failed")
}

// decodeJSONBody decodes a request body, rejecting unknown fields
func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
