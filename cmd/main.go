package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"smartharvester/internal/cache"
	"smartharvester/internal/config"
	"smartharvester/internal/database/postgres"
	"smartharvester/internal/database/redis"
	"smartharvester/internal/event"
	"smartharvester/internal/handlers"
	"smartharvester/internal/planner"
	"smartharvester/internal/repository"
	"smartharvester/internal/services"
	"smartharvester/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/smartharvester", "log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(file, nil)))
	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	cfg := config.New()

	slog.Info("connecting to PostgreSQL",
		"host", cfg.PostgresCfg.Host, "port", cfg.PostgresCfg.Port, "dbname", cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("failed to connect to database, retrying in background", "error", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	var publisher services.Publisher
	var digestPublisher *event.DigestPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Error("failed to connect to RabbitMQ, digest publishing disabled", "error", err)
	} else {
		defer rabbitConn.Close()
		digestPublisher, err = event.NewDigestPublisher(rabbitConn, cfg.DigestCfg.Queue)
		if err != nil {
			slog.Error("failed to create digest publisher", "error", err)
		} else {
			publisher = digestPublisher
		}
	}

	plantingRepo := repository.NewPlantingRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	sessionCache := cache.NewSessionCache(redisClient.GetClient())

	kb := planner.NewCropKnowledgeBase()
	gen := planner.NewPlanGenerator(kb)

	reconciler := services.NewReconciler(plantingRepo, sessionCache, cfg.StoreTimeout)
	engine := services.NewNotificationEngine(notificationRepo, sessionCache, cfg.StoreTimeout)
	plantingService := services.NewPlantingService(
		plantingRepo, sessionCache, reconciler, gen, engine, cfg.StoreTimeout)
	digestService := services.NewDigestService(userRepo, reconciler, gen, publisher, cfg.DigestCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	pool := worker.NewWorkingPool(1, 4)
	wg.Add(1)
	go pool.Start(ctx, &wg)

	scheduler := worker.NewJobScheduler("digest", cfg.DigestCfg.Interval, pool)
	scheduler.AddJob(func(jobCtx context.Context) error {
		_, err := digestService.Run(jobCtx)
		return err
	})
	go scheduler.Run(ctx)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("SmartHarvester tracker is healthy")
	})
	handlers.NewPlantingHandler(plantingService).Register(app)
	handlers.NewNotificationHandler(engine, userRepo).Register(app)
	handlers.NewDigestHandler(digestService, digestPublisher).Register(app)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()
	slog.Info("SmartHarvester tracker started", "port", cfg.Port)

	<-ctx.Done()
	slog.Info("shutdown signaled")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	wg.Wait()
	slog.Info("SmartHarvester tracker stopped")
}
