package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntuon/taskapp/internal/api"
	"github.com/ntuon/taskapp/internal/config"
	"github.com/ntuon/taskapp/internal/database"
	"github.com/ntuon/taskapp/internal/database/repository"
	"github.com/ntuon/taskapp/internal/database/service"
	"github.com/ntuon/taskapp/internal/handler"
	"github.com/ntuon/taskapp/internal/logger"
	"github.com/ntuon/taskapp/internal/mail"
	"github.com/ntuon/taskapp/internal/middleware"
	"github.com/ntuon/taskapp/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Server] Starting Tasks App API...",
		"environment", cfg.AppEnv,
	)

	// 3. Connect to Database
	if err := database.ConnectDatabase(cfg, appLogger); err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	db := database.GetDatabase()

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewAuthTokenRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// 5. Background worker pool and mailer
	pool := worker.NewPool(appLogger)
	mailer := mail.New(cfg, appLogger)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, tokenRepo, mailer, pool, cfg, appLogger)
	userService := service.NewUserService(userRepo, tokenRepo, taskRepo, mailer, pool, cfg, appLogger)
	taskService := service.NewTaskService(taskRepo, appLogger)

	// 7. Initialize Handlers & Middleware
	userHandler := handler.NewUserHandler(authService, userService, appLogger)
	taskHandler := handler.NewTaskHandler(taskService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	// 8. Initialize Rate Limiter
	rateLimiter, err := middleware.NewRateLimiter(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	}
	defer rateLimiter.Close()

	// 9. Setup Router
	r := api.SetupRouter(userHandler, taskHandler, authMiddleware, middleware.AuthRateLimit(rateLimiter, appLogger))

	// 10. Start HTTP Server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		appLogger.Info("🌍 [Server] HTTP Server running...", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("❌ HTTP Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("🛑 [Server] Shutting down...")

	shutdownTimeout := time.Duration(cfg.ShutdownTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("❌ [Server] Forced shutdown", "error", err)
	}

	// Drain pending email dispatches
	pool.Shutdown(shutdownTimeout)

	appLogger.Info("✅ [Server] Stopped")
}
