package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

const testOpenAPIDoc = `openapi: 3.0.3
info:
  title: Coach API
  version: 1.0.0
paths:
  /healthz:
    get:
      responses:
        "200":
          description: OK
`

func openAPIRouter(specPath string) *mux.Router {
	router := mux.NewRouter()
	NewOpenAPIHandler(specPath).RegisterRoutes(router)
	return router
}

func writeTestSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(testOpenAPIDoc), 0o600); err != nil {
		t.Fatalf("failed to write spec file: %v", err)
	}
	return path
}

func TestServeOpenAPIYAML(t *testing.T) {
	t.Parallel()

	router := openAPIRouter(writeTestSpec(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.yaml", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Content-Type = %q, want application/x-yaml", ct)
	}
	if !strings.Contains(w.Body.String(), "title: Coach API") {
		t.Errorf("body does not carry the document: %q", w.Body.String())
	}
}

func TestServeOpenAPIJSON(t *testing.T) {
	t.Parallel()

	router := openAPIRouter(writeTestSpec(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v, want 3.0.3", doc["openapi"])
	}
	info, ok := doc["info"].(map[string]any)
	if !ok || info["title"] != "Coach API" {
		t.Errorf("info = %v", doc["info"])
	}
}

func TestServeOpenAPIMissingFile(t *testing.T) {
	t.Parallel()

	router := openAPIRouter(filepath.Join(t.TempDir(), "missing.yaml"))

	for _, target := range []string{"/openapi.yaml", "/openapi.json"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, w.Code)
		}
	}
}
