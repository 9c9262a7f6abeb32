package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/api/handlers"
	"github.com/maintsense/backend/internal/fleet"
	"github.com/maintsense/backend/internal/metrics"
	"github.com/maintsense/backend/internal/middleware/ratelimit"
	"github.com/maintsense/backend/internal/middleware/security"
	"github.com/maintsense/backend/internal/middleware/validation"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/model/artifact"
	"github.com/maintsense/backend/internal/storage/sqlite"
	"github.com/maintsense/backend/internal/training"
	"github.com/maintsense/backend/pkg/config"
	appLogger "github.com/maintsense/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting maintenance predictor API server")

	metrics.Init()

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			appLogger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	historyClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer historyClient.Close()

	err = historyClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var store artifact.Store
	switch cfg.Model.ArtifactBackend {
	case "redis":
		redisStore, err := artifact.NewRedisStore(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis artifact store", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
	default:
		store = artifact.NewFSStore()
	}

	predictor := model.NewPredictor(cfg.Model.LearningRate, cfg.Model.Epochs)

	// Pick up a previously saved model before serving traffic; until one
	// exists predictions run in the degraded random mode.
	err = predictor.Load(context.Background(), store, cfg.Model.ArtifactPath)
	if errors.Is(err, artifact.ErrNotExist) {
		appLogger.Info("No saved model found, starting untrained", zap.String("path", cfg.Model.ArtifactPath))
	} else if err != nil {
		appLogger.Warn("Could not load existing model, starting untrained", zap.Error(err))
	}

	orchestrator := training.NewOrchestrator(
		predictor,
		store,
		cfg.Model.ArtifactPath,
		historyClient,
		cfg.Training.MinSamples,
		cfg.Training.MaxSamples,
	)

	fleetStore := fleet.NewStore()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxUploadSize: cfg.Server.BodyLimit,
		Logger:        appLogger.Log,
	}))

	uploadHandler := handlers.NewUploadHandler(predictor, fleetStore, historyClient)
	assetHandler := handlers.NewAssetHandler(fleetStore)
	predictHandler := handlers.NewPredictHandler(predictor)
	trainingHandler := handlers.NewTrainingHandler(orchestrator, predictor, cfg.Model.ArtifactPath, cfg.Training.DefaultSamples)
	reportHandler := handlers.NewReportHandler(fleetStore, predictor)
	historyHandler := handlers.NewHistoryHandler(historyClient)
	wsHandler := handlers.NewWebSocketHandler(orchestrator)

	api := app.Group("/api/v1")

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Get("/assets", assetHandler.ListAssets)
	api.Get("/assets/:id", assetHandler.GetAsset)
	api.Delete("/assets", assetHandler.ClearAssets)
	api.Post("/predict", predictHandler.HandlePredict)
	api.Post("/train", trainingHandler.StartTraining)
	api.Get("/train/status", trainingHandler.GetStatus)
	api.Get("/export-report", reportHandler.ExportReport)
	api.Get("/history", historyHandler.GetHistory)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/training", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "healthy",
			"assets_count":  len(fleetStore.List()),
			"model_trained": predictor.Trained(),
			"time":          time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
