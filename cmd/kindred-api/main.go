// Package main is the entry point for the kindred-api server.
// Note: identity (OAuth, sessions) is handled by Clerk and payments by
// Stripe; this server owns usage metering, entitlements, streaks, and the
// companion features built on them.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jmylchreest/kindred-api/internal/auth"
	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/database"
	"github.com/jmylchreest/kindred-api/internal/http/handlers"
	"github.com/jmylchreest/kindred-api/internal/http/mw"
	"github.com/jmylchreest/kindred-api/internal/logging"
	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/service"
	"github.com/jmylchreest/kindred-api/internal/shutdown"
	"github.com/jmylchreest/kindred-api/internal/version"
	"github.com/jmylchreest/kindred-api/internal/worker"
)

func main() {
	// Initialize logger with TTY detection and format control
	logger := logging.SetDefault()

	// Log version info first thing
	v := version.Get()
	logger.Info("starting kindred-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Log current schema state
	applied, err := database.GetAppliedMigrations(db)
	if err != nil {
		logger.Warn("failed to read schema version", "error", err)
	} else if len(applied) > 0 {
		logger.Info("database schema ready",
			"schema_version", applied[len(applied)-1].Version,
			"migrations_applied", len(applied),
		)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize services
	services, err := service.NewServices(cfg, repos, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Initialize Clerk verifier for JWT validation
	clerkVerifier := auth.NewClerkVerifier(cfg.ClerkIssuerURL)
	logger.Info("clerk authentication enabled", "issuer", cfg.ClerkIssuerURL)

	// Start background worker for the usage retention sweep
	jobWorker := worker.New(
		services.Retention,
		worker.Config{
			PollInterval:     cfg.WorkerPollInterval,
			RetentionEnabled: cfg.RetentionEnabled,
			SweepInterval:    cfg.RetentionInterval,
		},
		logger,
	)
	ctx, cancel := context.WithCancel(context.Background())
	jobWorker.Start(ctx)

	// Idle monitor for scale-to-zero deployments (disabled when IDLE_TIMEOUT=0)
	idleMonitor := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout:             cfg.IdleTimeout,
		Logger:              logger,
		ExcludePaths:        []string{"/healthz", "/readyz", "/api/v1/health"},
		BackgroundWorkCheck: jobWorker.Busy,
	})
	idleMonitor.Start()

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(idleMonitor.Middleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Global rate limit by IP (fallback for unauthenticated requests)
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Global concurrency throttle - prevent system overload
	router.Use(middleware.Throttle(100))

	// Create Huma API config for main API with OpenAPI docs
	humaConfig := huma.DefaultConfig("Kindred API", "1.0.0")
	humaConfig.Info.Description = "AI companion API with chat, journaling, voice, usage metering, and daily streaks."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	// Add security scheme for Bearer auth
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Clerk session authentication. Include your session JWT in the Authorization header as `Bearer <token>`.",
		},
	}

	// Main API with OpenAPI docs
	api := humachi.New(router, humaConfig)

	// Config for hidden routes (K8s probes - no docs needed)
	hiddenConfig := huma.DefaultConfig("Kindred API", "1.0.0")
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)

	// Config for protected routes (no separate docs - they're served by the main API)
	// Note: Routes registered here don't appear in the main OpenAPI spec.
	// The full spec is generated by cmd/kindred-openapi from the routes package.
	protectedConfig := huma.DefaultConfig("Kindred API", "1.0.0")
	protectedConfig.Info.Description = humaConfig.Info.Description
	protectedConfig.Servers = humaConfig.Servers
	protectedConfig.DocsPath = ""
	protectedConfig.OpenAPIPath = ""
	protectedConfig.SchemasPath = ""

	// Health check (public, shown in docs)
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	// Public plan caps (for dynamic pricing pages)
	huma.Get(api, "/api/v1/plans", handlers.NewPlansHandler(cfg.Limits).ListPlans)

	// Kubernetes probes (hidden from docs - internal use only)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	readyzHandler := handlers.NewReadyzHandler(db)
	huma.Get(hiddenAPI, "/readyz", readyzHandler.Readyz)

	// Clerk webhook (signature verified by handler, not user auth)
	if cfg.ClerkWebhookSecret != "" {
		clerkWebhook := handlers.NewClerkWebhookHandler(cfg, services.User, logger)
		router.Post("/api/v1/webhooks/clerk", clerkWebhook.HandleWebhook)
		logger.Info("clerk webhook endpoint enabled")
	}

	// Stripe webhook (signature verified by handler, not user auth)
	if cfg.StripeWebhookSecret != "" {
		stripeWebhook := handlers.NewStripeWebhookHandler(cfg, services.Billing, logger)
		router.Post("/api/v1/webhooks/stripe", stripeWebhook.HandleWebhook)
		logger.Info("stripe webhook endpoint enabled")
	}

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(clerkVerifier))

		// Create a new Huma API for protected routes
		protectedAPI := humachi.New(r, protectedConfig)

		// Usage routes
		usageHandler := handlers.NewUsageHandler(services.Usage)
		huma.Get(protectedAPI, "/api/v1/usage/messages", usageHandler.GetMessageUsage)
		huma.Post(protectedAPI, "/api/v1/usage/messages", usageHandler.ConsumeMessages)
		huma.Get(protectedAPI, "/api/v1/usage/voice", usageHandler.GetVoiceUsage)
		huma.Post(protectedAPI, "/api/v1/usage/voice", usageHandler.ConsumeVoice)

		// Streak routes
		streakHandler := handlers.NewStreakHandler(services.Streak)
		huma.Post(protectedAPI, "/api/v1/streaks", streakHandler.RecordStreak)
		huma.Get(protectedAPI, "/api/v1/streaks", streakHandler.GetStreaks)

		// Chat routes
		chatHandler := handlers.NewChatHandler(services.Chat)
		huma.Post(protectedAPI, "/api/v1/chat", chatHandler.SendMessage)
		huma.Get(protectedAPI, "/api/v1/chat/conversations", chatHandler.ListConversations)
		huma.Get(protectedAPI, "/api/v1/chat/conversations/{id}/messages", chatHandler.GetMessages)
		huma.Delete(protectedAPI, "/api/v1/chat/conversations/{id}", chatHandler.DeleteConversation)

		// Journal routes
		journalHandler := handlers.NewJournalHandler(services.Journal)
		huma.Post(protectedAPI, "/api/v1/journal", journalHandler.WriteJournal)
		huma.Get(protectedAPI, "/api/v1/journal", journalHandler.ListJournal)
		huma.Get(protectedAPI, "/api/v1/journal/{date}", journalHandler.GetJournal)
		huma.Delete(protectedAPI, "/api/v1/journal/{date}", journalHandler.DeleteJournal)

		// Voice routes
		voiceHandler := handlers.NewVoiceHandler(services.Voice)
		huma.Post(protectedAPI, "/api/v1/voice/sessions/start", voiceHandler.StartVoiceSession)
		huma.Post(protectedAPI, "/api/v1/voice/sessions/complete", voiceHandler.CompleteVoiceSession)
		huma.Get(protectedAPI, "/api/v1/voice/sessions", voiceHandler.ListVoiceSessions)
		huma.Post(protectedAPI, "/api/v1/voice/transcribe", voiceHandler.Transcribe)
		huma.Post(protectedAPI, "/api/v1/voice/synthesize", voiceHandler.Synthesize)

		// Billing routes
		billingHandler := handlers.NewBillingHandler(services.Billing)
		huma.Post(protectedAPI, "/api/v1/billing/checkout", billingHandler.CreateCheckout)
		huma.Post(protectedAPI, "/api/v1/billing/portal", billingHandler.CreatePortal)
		huma.Get(protectedAPI, "/api/v1/billing/subscription", billingHandler.GetSubscription)

		// Referral routes
		referralHandler := handlers.NewReferralHandler(services.Referral)
		huma.Get(protectedAPI, "/api/v1/referrals", referralHandler.GetReferrals)
		huma.Post(protectedAPI, "/api/v1/referrals/redeem", referralHandler.RedeemReferral)

		// Current user profile
		userHandler := handlers.NewUserHandler(services.User, services.Entitlement)
		huma.Get(protectedAPI, "/api/v1/me", userHandler.GetMe)
		huma.Put(protectedAPI, "/api/v1/me/companion", userHandler.SetCompanionName)
	})

	// Music routes (requires Pro plan)
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(clerkVerifier))
		r.Use(mw.RequirePlan(services.Entitlement, models.PlanPro))

		musicAPI := humachi.New(r, protectedConfig)
		huma.Get(musicAPI, "/api/v1/music/suggestions", handlers.NewMusicHandler(services.Music).GetSuggestions)
	})

	// Admin routes (requires is_admin flag)
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(clerkVerifier))
		r.Use(mw.RequireAdmin(services.Entitlement))

		adminAPI := humachi.New(r, protectedConfig)
		adminHandler := handlers.NewAdminHandler(services.Admin)
		huma.Get(adminAPI, "/api/v1/admin/users", adminHandler.ListUsers)
		huma.Get(adminAPI, "/api/v1/admin/users/{id}", adminHandler.GetUser)
		huma.Put(adminAPI, "/api/v1/admin/users/{id}/plan", adminHandler.SetPlanOverride)
		huma.Put(adminAPI, "/api/v1/admin/users/{id}/admin", adminHandler.SetAdmin)
		huma.Post(adminAPI, "/api/v1/admin/users/{id}/usage/reset", adminHandler.ResetUsage)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal or idle timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-sigChan:
			logger.Info("shutting down server", "reason", "signal")
		case <-idleMonitor.ShutdownChan():
			logger.Info("shutting down server", "reason", "idle")
		}

		// Stop the worker first
		cancel()
		jobWorker.Stop()
		idleMonitor.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("server starting", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
