package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/storekit/storefront-auth/internal/auth"
	"github.com/storekit/storefront-auth/internal/background"
	"github.com/storekit/storefront-auth/internal/config"
	"github.com/storekit/storefront-auth/internal/database"
	"github.com/storekit/storefront-auth/internal/handlers"
	middlewareCustom "github.com/storekit/storefront-auth/internal/middleware"
	"github.com/storekit/storefront-auth/internal/models"
	"github.com/storekit/storefront-auth/internal/repositories"
	"github.com/storekit/storefront-auth/internal/routes"
	"github.com/storekit/storefront-auth/internal/services"
	pkgauth "github.com/storekit/storefront-auth/pkg/auth"
	pkghttp "github.com/storekit/storefront-auth/pkg/http"
	pkglogger "github.com/storekit/storefront-auth/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate("migrations"); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Redis backs the per-email rate limiter. The limiter fails open, so a
	// missing Redis degrades throttling rather than taking the service down.
	redisClient, err := database.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", slog.Any("error", err))
		redisClient = nil
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	resetRepo := repositories.NewResetTokenRepository(db)

	// Seed groups and bootstrap the first admin
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := groupRepo.EnsureGroups(startupCtx, models.GroupCustomer, models.GroupStaff, models.GroupAdmin); err != nil {
		logger.Error("failed to seed groups", slog.Any("error", err))
		startupCancel()
		os.Exit(1)
	}
	if err := ensureAdminUser(startupCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	startupCancel()

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Per-email attempt limits backed by Redis
	rateLimitService := services.NewRateLimitService(redisClient, map[string]services.RateLimitRule{
		services.ActionLogin: {
			MaxAttempts: cfg.Auth.LoginMaxAttempts,
			Window:      cfg.Auth.LoginWindow,
		},
		services.ActionPasswordReset: {
			MaxAttempts: cfg.Auth.ResetMaxRequests,
			Window:      cfg.Auth.ResetWindow,
		},
	}, logger)

	// Timing delay for auth security
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Email delivery for password reset links
	var emailService services.EmailService
	if cfg.Email.Provider == "ses" {
		emailService, err = services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.ResetURLBase,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		emailService = services.NewLogEmailService(cfg.Email.ResetURLBase, logger)
	}

	// Initialize services
	userService := services.NewUserService(userRepo, logger)
	authService := services.NewAuthService(
		userRepo,
		resetRepo,
		rateLimitService,
		emailService,
		tokenManager,
		timingDelay,
		cfg.Auth.ResetTokenTTL,
		logger,
		auditLogger,
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	userHandler := handlers.NewUserHandler(userService)

	// Initialize cleanup manager for expired reset tokens
	cleanupManager := background.NewCleanupManager(resetRepo, logger, cfg.Auth.CleanupInterval)

	// Setup router
	corsConfig := middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, userHandler, tokenManager, userRepo)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set. Safe to run on every start.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := services.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		FirstName:    "Admin",
		IsActive:     true,
		IsSuperuser:  true,
	}

	if _, err := userRepo.Create(ctx, admin, models.GroupAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
