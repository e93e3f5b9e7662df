package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/primoscope/echotune/internal/cache"
	"github.com/primoscope/echotune/internal/config"
	"github.com/primoscope/echotune/internal/database"
	"github.com/primoscope/echotune/internal/engine"
	"github.com/primoscope/echotune/internal/handlers"
	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/kernel"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/metrics"
	"github.com/primoscope/echotune/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	serverCfg := config.LoadServer()
	engineCfg := config.Load()

	if err := logger.Initialize(serverCfg.LogLevel, serverCfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== EchoTune engine starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	metrics.Initialize()

	// Profile cache backend: Redis when configured, in-process otherwise
	var cacheStore cache.Store
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisCache, err := cache.NewRedis(redisHost, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
			cacheStore = cache.NewMemory()
		} else {
			logger.Log.Info("✅ Redis profile cache connected", zap.String("host", redisHost))
			cacheStore = redisCache
		}
	} else {
		cacheStore = cache.NewMemory()
	}

	historyStore := history.NewGormStore(database.DB)
	eng := engine.New(historyStore, historyStore, historyStore, cacheStore, historyStore, engineCfg)

	// Wire the kernel and register shutdown hooks
	k := kernel.New().
		SetDB(database.DB).
		SetLogger(logger.Log).
		SetCache(cacheStore).
		SetHistory(historyStore).
		SetEngine(eng)
	k.OnCleanup(func(ctx context.Context) error {
		return cacheStore.Close()
	})
	if err := k.Validate(); err != nil {
		logger.FatalWithFields("Dependency validation failed", err)
	}

	// Start background drain and refresh jobs
	eng.Start()
	defer eng.Stop()

	// Setup Gin router
	if serverCfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	h := handlers.NewHandlers(eng, historyStore)

	// Health and metrics endpoints
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	{
		api.GET("/recommendations/:user_id", h.GetRecommendations)
		api.POST("/feedback/:user_id", h.SubmitFeedback)
		api.GET("/profile/:user_id", h.GetUserProfile)
		api.GET("/analytics/ctr", h.GetSourceCTR)
	}

	srv := &http.Server{
		Addr:    ":" + serverCfg.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("🎵 EchoTune engine listening", zap.String("port", serverCfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	if err := k.Cleanup(ctx); err != nil {
		logger.ErrorWithFields("Cleanup failed", err)
	}

	logger.Log.Info("Server exited")
}
