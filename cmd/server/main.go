package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aromi/coach-api/internal/config"
	"github.com/aromi/coach-api/internal/database"
	"github.com/aromi/coach-api/internal/handlers"
	"github.com/aromi/coach-api/internal/logger"
	"github.com/aromi/coach-api/internal/middleware"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/aromi/coach-api/internal/services/coach"
	"github.com/aromi/coach-api/internal/services/planner"
	"github.com/aromi/coach-api/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing (optional)
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "coach-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisLimiter, err := middleware.NewRedisLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Repositories
	userRepo := database.NewUserRepository(db)
	conversationRepo := database.NewConversationRepository(db)
	profileRepo := database.NewProfileRepository(db)
	workoutPlanRepo := database.NewWorkoutPlanRepository(db)
	mealPlanRepo := database.NewMealPlanRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)

	// AI gateway. Without an API key the chat and plan routes are
	// disabled rather than failing on first use.
	var gateway ai.Gateway
	if cfg.OpenRouterKey != "" {
		gateway = ai.NewOpenRouterGatewayWithLogger(
			cfg.OpenRouterKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			zapLogger,
			debugMode,
		)
		zapLogger.Info("ai_gateway_configured",
			zap.String("api_key", ai.SanitizeAPIKey(cfg.OpenRouterKey)),
		)
	} else {
		zapLogger.Warn("openrouter_key_not_configured_ai_features_disabled")
	}

	// Services
	var orchestrator *coach.Orchestrator
	var generator *planner.Generator
	if gateway != nil {
		orchestrator = coach.NewOrchestrator(conversationRepo, gateway, zapLogger)
		generator = planner.NewGenerator(profileRepo, workoutPlanRepo, mealPlanRepo, gateway, zapLogger)
	}

	// Handlers
	profileHandler := handlers.NewProfileHandler(profileRepo)
	healthChecker := handlers.NewHealthChecker(db, redisLimiter)

	// Router and middleware. Outermost registered first.
	r := mux.NewRouter()
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("coach-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// CORS policy lives in the database and hot-reloads; FRONTEND_URL is
	// the fallback until a row is configured.
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, middleware.DefaultCORSReloadInterval)
	r.Use(corsReloader.Middleware())
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimitFromDB(redisLimiter, ratelimitConfigRepo, "")
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_rate_limiting", zap.Error(err))
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", healthChecker.VersionInfo).Methods("GET")

	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"))
	openAPIHandler.RegisterRoutes(r)

	authMW := middleware.Auth(userRepo, []byte(cfg.SessionJWTSecret))

	apiRouter := r.PathPrefix("/api").Subrouter()

	// Profile routes. The request timeout wraps only non-streaming
	// subrouters because http.TimeoutHandler buffers responses.
	profileRouter := apiRouter.PathPrefix("/profile").Subrouter()
	profileRouter.Use(authMW)
	profileRouter.Use(rateLimitMW)
	profileRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	profileHandler.RegisterRoutes(profileRouter)

	if gateway != nil {
		conversationHandler := handlers.NewConversationHandler(conversationRepo, orchestrator, zapLogger)
		planHandler := handlers.NewPlanHandler(generator, workoutPlanRepo, mealPlanRepo, zapLogger)

		// Conversation routes stream SSE, so no timeout middleware here.
		conversationRouter := apiRouter.PathPrefix("/conversations").Subrouter()
		conversationRouter.Use(authMW)
		conversationRouter.Use(rateLimitMW)
		conversationHandler.RegisterRoutes(conversationRouter)

		// Plan generation is synchronous and can take most of a minute.
		planRouter := apiRouter.PathPrefix("/plans").Subrouter()
		planRouter.Use(authMW)
		planRouter.Use(rateLimitMW)
		planRouter.Use(middleware.Timeout(90 * time.Second))
		planHandler.RegisterRoutes(planRouter)
	}

	// Catch-all OPTIONS handler; rs/cors terminates preflight requests
	// itself, this covers plain OPTIONS on unmatched routes.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE responses stay open for the duration of
		// a chat turn. Per-route timeouts cover the JSON endpoints.
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
