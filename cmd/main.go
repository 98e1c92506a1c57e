package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/julihealth/wellness-backend/internal/clients/redis"
	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/db"
	httpx "github.com/julihealth/wellness-backend/internal/http"
	httpH "github.com/julihealth/wellness-backend/internal/http/handlers"
	httpMW "github.com/julihealth/wellness-backend/internal/http/middleware"
	"github.com/julihealth/wellness-backend/internal/jobs"
	"github.com/julihealth/wellness-backend/internal/platform/envutil"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
	"github.com/julihealth/wellness-backend/internal/score"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	httpPort := envutil.String("PORT", "8080")
	scoreIntervalMin := envutil.Int("SCORE_INTERVAL_MINUTES", score.DefaultIntervalMinutes)
	activeUserDays := envutil.Int("SCORE_ACTIVE_USER_DAYS", score.DefaultActiveUserDays)
	batchConcurrency := envutil.Int("SCORE_BATCH_CONCURRENCY", 1)
	catalogFile := os.Getenv("WELLNESS_CATALOG_FILE")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	observationRepo := repos.NewObservationRepo(thePG, log)
	userConditionRepo := repos.NewUserConditionRepo(thePG, log)
	wellnessScoreRepo := repos.NewWellnessScoreRepo(thePG, log)
	scoreRunRepo := repos.NewScoreRunRepo(thePG, log)

	// Factor catalog
	registry := score.NewRegistry()
	if catalogFile != "" {
		if err := registry.ApplyOverrideFile(catalogFile); err != nil {
			log.Error("Could not apply catalog override file", "error", err, "path", catalogFile)
			os.Exit(1)
		}
		log.Info("Applied catalog overrides", "path", catalogFile)
	}
	registry.Seal()

	// Redis (optional: cache + run lock)
	var scoreCache score.LatestScoreCache
	var runLock score.RunLock
	if rdb, err := redis.NewClient(log); err != nil {
		log.Warn("Redis unavailable, running without cache and run lock", "error", err)
	} else {
		scoreCache = redis.NewScoreCache(log, rdb)
		runLock = redis.NewRunLock(log, rdb)
	}

	// Score engine
	log.Info("Setting up score engine from main...")
	resolver := score.NewResolver(observationRepo, log)
	aggregator := score.NewAggregator(registry, resolver, log)
	scoreService := score.NewService(thePG, log, registry, aggregator, wellnessScoreRepo, userConditionRepo, scoreCache)

	// Batch driver + worker
	batchDriver := score.NewBatchDriver(log, scoreService, userConditionRepo, scoreRunRepo, runLock, activeUserDays, batchConcurrency)
	worker := jobs.NewWorker(log, batchDriver, time.Duration(scoreIntervalMin)*time.Minute)
	worker.Start(context.Background())

	// HTTP
	log.Info("Setting up HTTP server from main...")
	authMW := httpMW.NewAuthMiddleware(log, jwtSecretKey)
	server := httpx.NewServer(httpx.RouterConfig{
		AuthMiddleware:     authMW,
		ScoreHandler:       httpH.NewScoreHandler(scoreService),
		ObservationHandler: httpH.NewObservationHandler(observationRepo, log),
		HealthHandler:      httpH.NewHealthHandler(),
	})

	log.Info("Starting server", "port", httpPort)
	if err := server.Run(":" + httpPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
