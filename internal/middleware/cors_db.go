package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aromi/coach-api/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	// DefaultCORSReloadInterval is how often the CORS policy is re-read
	// from the database.
	DefaultCORSReloadInterval = time.Minute
	defaultCORSMaxAge         = 86400
)

// CORSConfigStore loads the persisted CORS policy
type CORSConfigStore interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// CORSReloader applies a CORS policy loaded from the database and
// refreshes it on an interval, so origin changes do not need a restart.
// When no row exists the fallback origins (comma-separated, typically
// FRONTEND_URL) apply.
type CORSReloader struct {
	store    CORSConfigStore
	fallback string
	logger   *zap.Logger
	interval time.Duration

	next http.Handler

	mu      sync.RWMutex
	current http.Handler
}

// NewCORSReloader creates a CORS middleware backed by the config store.
func NewCORSReloader(store CORSConfigStore, fallbackOrigins string, logger *zap.Logger, interval time.Duration) *CORSReloader {
	if interval <= 0 {
		interval = DefaultCORSReloadInterval
	}
	return &CORSReloader{
		store:    store,
		fallback: strings.TrimSpace(fallbackOrigins),
		logger:   logger,
		interval: interval,
	}
}

// Middleware wraps next with the current CORS policy.
func (c *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		c.next = next
		c.load(context.Background())
		return c
	}
}

// Start runs the reload loop until ctx is cancelled. Call after
// Middleware() has been applied.
func (c *CORSReloader) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.load(ctx)
		}
	}
}

func (c *CORSReloader) load(ctx context.Context) {
	if c.next == nil {
		return
	}

	origins := models.SplitOrigins(c.fallback)
	allowCredentials := true
	maxAge := defaultCORSMaxAge

	cfg, err := c.store.Get(ctx)
	if err == nil && cfg != nil {
		origins = cfg.OriginList()
		allowCredentials = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	} else if err != nil && c.logger != nil {
		c.logger.Debug("cors_config_not_loaded_using_fallback",
			zap.Error(err),
		)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}).Handler(c.next)

	c.mu.Lock()
	c.current = handler
	c.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (c *CORSReloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	handler := c.current
	c.mu.RUnlock()
	if handler != nil {
		handler.ServeHTTP(w, r)
		return
	}
	if c.next != nil {
		c.next.ServeHTTP(w, r)
	}
}
