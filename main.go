package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/henrychris/EventManagement/internal/di"
	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/middleware"
	"github.com/henrychris/EventManagement/migrations"
	"github.com/henrychris/EventManagement/pkg/config"
	"github.com/henrychris/EventManagement/pkg/database"
	"github.com/henrychris/EventManagement/pkg/logger"
	"github.com/henrychris/EventManagement/pkg/redis"
	"github.com/henrychris/EventManagement/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Event Management Service...")

	ctx := context.Background()

	// Initialize OpenTelemetry
	if _, err := telemetry.Init(ctx, cfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	} else if cfg.OTel.Enabled {
		appLog.Info(fmt.Sprintf("Telemetry initialized (collector: %s)", cfg.OTel.CollectorAddr))
	}
	defer telemetry.Shutdown(ctx)

	// Initialize database connection
	db, err := database.NewPostgres(ctx, cfg.Database, cfg.OTel.Enabled)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)",
		cfg.Database.MinConns, cfg.Database.MaxConns))

	// Apply schema migrations
	if err := migrations.Apply(ctx, db.Pool()); err != nil {
		appLog.Fatal(fmt.Sprintf("Migrations failed: %v", err))
	}
	appLog.Info("Migrations applied")

	// Initialize Redis connection (optional - caching and idempotency are
	// disabled when it is unreachable)
	var redisClient *redis.Client
	redisClient, err = redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed (caching disabled): %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (%s)", cfg.Redis.Addr()))
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
	})

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware())
	}

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	authRequired := middleware.JWTMiddleware(container.AuthService)
	organiserOnly := middleware.RequireRole(domain.RoleOrganiser, domain.RoleAdmin)

	// API routes
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", container.AuthHandler.Register)
			auth.POST("/login", container.AuthHandler.Login)
		}

		users := v1.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/me", container.AuthHandler.Me)
		}

		events := v1.Group("/events")
		{
			// Public read endpoints. /search and /available-tickets must be
			// registered before /:id so they are not captured by it.
			events.GET("/search", container.EventHandler.Search)
			events.GET("/available-tickets", container.EventHandler.AvailableTickets)
			events.GET("/:id", container.EventHandler.Get)

			// Ticket purchase (any authenticated user). Retries may carry
			// an X-Idempotency-Key to deduplicate.
			buy := events.Group("")
			buy.Use(authRequired)
			if redisClient != nil {
				buy.Use(middleware.Idempotency(redisClient))
			}
			buy.POST("/:id/buy-ticket", container.EventHandler.BuyTicket)

			// Event management (organiser or admin)
			protected := events.Group("")
			protected.Use(authRequired)
			protected.Use(organiserOnly)
			{
				protected.POST("", container.EventHandler.Create)
				protected.PUT("/:id", container.EventHandler.Update)
				protected.DELETE("/:id", container.EventHandler.Delete)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Event Management Service listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
