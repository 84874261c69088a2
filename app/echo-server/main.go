package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	serverMetrics "adOptimizer/app/echo-server/metrics"
	"adOptimizer/app/echo-server/router"
	"adOptimizer/business/account"
	"adOptimizer/business/optimizer"
	"adOptimizer/internal/middleware"
	"adOptimizer/internal/repository/adplatform"
	psqlRepo "adOptimizer/internal/repository/postgres"
	redisRepo "adOptimizer/internal/repository/redis"
	"adOptimizer/internal/rest"
	"adOptimizer/pkg/config"
	"adOptimizer/pkg/database"
	redisDB "adOptimizer/pkg/database/redis"
	"adOptimizer/pkg/logger"
	"adOptimizer/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Ad Optimizer", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.ClosePostgres(db)

	logger.Info("Database connected successfully")

	// Redis only caches verified API keys; run without it when unreachable
	var keyCache account.KeyCache
	if cfg.Redis.APIKeyTTL > 0 {
		redisClient, err := redisDB.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, api keys will not be cached", "error", err)
		} else {
			defer redisDB.CloseRedisClient(redisClient)
			keyCache = redisRepo.NewAPIKeyCache(redisClient)
		}
	}

	facebookRepo := adplatform.NewFacebookRepository(adplatform.FacebookConfig{
		GraphURL:   cfg.AdPlatform.GraphURL,
		APIVersion: cfg.AdPlatform.APIVersion,
		BatchSize:  cfg.AdPlatform.BatchSize,
		Timeout:    cfg.AdPlatform.Timeout,
	})

	// Init repo
	apiUserRepo := psqlRepo.NewAPIUserRepository(db)
	optimizerConfigRepo := psqlRepo.NewOptimizerConfigRepository(db)
	runRepo := psqlRepo.NewOptimizationRunRepository(db)

	// Init service
	accountService := account.NewAccountService(apiUserRepo, keyCache, cfg.Redis.APIKeyTTL)
	optimizerService := optimizer.NewService(
		optimizerConfigRepo,
		runRepo,
		facebookRepo,
		optimizer.Settings{Bandit: cfg.Optimizer.Bandit, Accelerate: cfg.Optimizer.Accelerate},
	)

	// Init handler
	optimizerHandler := rest.NewOptimizerHandler(optimizerService)
	simulationHandler := rest.NewSimulationHandler()
	adminHandler := rest.NewAdminHandler(optimizerService, accountService)

	metrics.Init()
	serverMetrics.Init()

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceMiddleware())
	e.Use(serverMetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: strings.Split(cfg.Server.AllowOrigins, ","),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			echo.HeaderXRequestID, middleware.HeaderAPIKey,
		},
	}))

	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	apiKeyRequired := middleware.APIKeyMiddleware(accountService)
	api := e.Group("/api/v1")
	router.SetOptimizerRoutes(api, optimizerHandler, apiKeyRequired)
	router.SetSimulationRoutes(api, simulationHandler, apiKeyRequired)
	router.SetAdminRoutes(api, adminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
