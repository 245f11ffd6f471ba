package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/cache"
	"github.com/textsimplify/api/internal/config"
	"github.com/textsimplify/api/internal/database"
	"github.com/textsimplify/api/internal/logging"
	"github.com/textsimplify/api/internal/mailer"
	"github.com/textsimplify/api/internal/metrics"
	"github.com/textsimplify/api/internal/middleware"
	"github.com/textsimplify/api/internal/simplifier"
	"github.com/textsimplify/api/internal/tracing"
)

const version = "1.0.0"

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewDefaultLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Initialize JWT secret from config
	middleware.SetJWTSecret(cfg.Auth.JWTSecret)
	log.Info("JWT authentication configured")

	// Initialize tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
	}

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	// Initialize redis
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Initialize mailer
	smtp, err := mailer.New(cfg.Email, log)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}

	// Initialize simplification service
	completer := simplifier.NewClient(cfg.Claude)
	simplifySvc := simplifier.NewService(completer, repo, log, cfg.Claude.Model)

	// Create API instance
	api := &API{
		users:      repo,
		queries:    repo,
		simplifier: simplifySvc,
		mailer:     smtp,
		db:         db,
		cache:      redisCache,
		cfg:        cfg,
		log:        log,
	}

	// Setup router
	router := setupRouter(api)

	// Start metrics server
	metricsSrv := metrics.NewServer(cfg.Metrics.Port)
	go func() {
		log.Infof("Starting metrics server on port %d", cfg.Metrics.Port)
		if err := metricsSrv.Start(); err != nil {
			log.ErrorWithErr("Metrics server failed", err)
		}
	}()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.ErrorWithErr("Metrics server shutdown failed", err)
	}

	log.Info("Server stopped")
}

func setupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	if api.log != nil {
		router.Use(middleware.RequestLogger(api.log))
	}
	if api.cfg.Tracing.Enabled {
		router.Use(middleware.Tracing())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins: api.cfg.CORS.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
	}))

	// Health check
	router.GET("/health", api.healthCheck)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/register", api.register)
		auth.POST("/login", api.login)
		auth.POST("/forgot-password", api.forgotPassword)
		auth.PATCH("/reset-password/:token", api.resetPassword)
		auth.GET("/verify-email/:token", api.verifyEmail)

		protected := auth.Group("", middleware.JWTAuth())
		{
			protected.GET("/me", api.getCurrentUser)
			protected.PATCH("/update-password", api.updatePassword)
			protected.PATCH("/update-me", api.updateMe)
		}
	}

	// API routes: bearer token or API key, then rate limits
	rl := middleware.NewRateLimiter(api.cfg.RateLimit.RPS, api.cfg.RateLimit.Burst)
	apiGroup := router.Group("/api",
		middleware.EitherAuth(api.users),
		middleware.RateLimit(rl),
		middleware.WindowLimit(api.cache, api.cfg.RateLimit.DailyQuota),
	)
	{
		apiGroup.POST("/simplify", api.simplifyText)
		apiGroup.GET("/queries/history", api.getHistory)
		apiGroup.GET("/queries/history/:id", api.getQuery)
		apiGroup.DELETE("/queries/history/:id", api.deleteQuery)
	}

	// 404 fallback
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  http.StatusNotFound,
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	return router
}
