package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/viperball-sim/internal/api"
	"github.com/stitts-dev/viperball-sim/internal/api/handlers"
	"github.com/stitts-dev/viperball-sim/internal/api/middleware"
	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/internal/providers"
	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/config"
	"github.com/stitts-dev/viperball-sim/pkg/database"
	"github.com/stitts-dev/viperball-sim/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger("", cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := models.NewSeasonStore(db)
	if err := store.Migrate(); err != nil {
		logrus.Fatalf("Failed to migrate schema: %v", err)
	}

	// Connect to Redis; the league runs without it, just uncached.
	var cacheService *services.CacheService
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("Redis unavailable, running without cache")
			redisClient = nil
		} else {
			cacheService = services.NewCacheService(redisClient)
			defer redisClient.Close()
		}
	}

	// WebSocket hub for live spectators
	webSocketHub := services.NewWebSocketHub(log)
	go webSocketHub.Run()

	// Game engine: the remote play-by-play service when configured, the
	// built-in statistical engine otherwise.
	engineFor := func(seed uint64) engine.GameEngine {
		return engine.NewFastSim(seed, log)
	}
	if cfg.RemoteEngineURL != "" {
		remote := providers.NewRemoteEngine(cfg.RemoteEngineURL, cfg.RemoteEngineTimeout, cfg.CircuitBreakerThreshold, log)
		engineFor = func(uint64) engine.GameEngine { return remote }
		log.WithField("url", cfg.RemoteEngineURL).Info("Using remote game engine")
	}

	defaultCfg := engine.ScheduleConfig{
		GamesPerTeam: cfg.GamesPerTeam,
		NonConfWeeks: cfg.NonConfWeeks,
	}
	manager := services.NewSeasonManager(store, cacheService, webSocketHub, engineFor, defaultCfg, log)

	// Autoplay ticker
	var autoplay *services.AutoplayService
	if cfg.EnableAutoplay {
		autoplay = services.NewAutoplayService(manager, cfg.AutoplayCron, log)
		if err := autoplay.Start(); err != nil {
			logrus.Fatalf("Failed to start autoplay: %v", err)
		}
		defer autoplay.Stop()
	}

	limiter := services.NewSimRateLimiter(float64(cfg.SimRateLimit), cfg.SimRateBurst)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler(db, redisClient, webSocketHub)
	router.GET("/health", healthHandler.Health)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, manager, autoplay, limiter, cfg)

	// Live season feed at root level (not under /api/v1)
	router.GET("/ws/seasons/:id", webSocketHub.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
