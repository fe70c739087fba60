package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description document
type OpenAPIHandler struct {
	specPath string
}

// NewOpenAPIHandler creates a handler serving the OpenAPI document at the
// given path. The path is resolved once at startup.
func NewOpenAPIHandler(specPath string) *OpenAPIHandler {
	absPath, err := filepath.Abs(specPath)
	if err != nil {
		absPath = specPath
	}
	return &OpenAPIHandler{specPath: absPath}
}

// RegisterRoutes registers the OpenAPI routes on the given router.
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the document as YAML
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(h.specPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "OpenAPI specification not found")
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(data)
}

// ServeJSON serves the document converted to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(h.specPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "OpenAPI specification not found")
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to parse OpenAPI specification")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}
