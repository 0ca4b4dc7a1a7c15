package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutask-api/internal/config"
	"github.com/noah-isme/edutask-api/internal/database"
	"github.com/noah-isme/edutask-api/internal/handler"
	"github.com/noah-isme/edutask-api/internal/middleware"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/observability"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/internal/router"
	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/pkg/ai"
	cloud "github.com/noah-isme/edutask-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Class{},
		&models.ClassMembership{},
		&models.Task{},
		&models.Assignment{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	events := service.NewNopEventPublisher()
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer conn.Drain()
		events = service.NewNATSEventPublisher(conn, cfg.EventSubjectBase, logger)
	}

	drafter := newDrafter(cfg, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	classRepo := repository.NewClassRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	taskService := service.NewTaskService(taskRepo, classRepo, validate, events, drafter, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, validate, uploader, events, logger)
	reportService := service.NewReportService(taskRepo, assignmentRepo, classRepo, redisClient, cfg.ReportCacheTTL, logger)

	taskHandler := handler.NewTaskHandler(taskService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())
	router.Register(app, cfg, router.Dependencies{
		TaskHandler:       taskHandler,
		AssignmentHandler: assignmentHandler,
		ReportHandler:     reportHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// newDrafter picks the configured drafting backend, falling back to the
// deterministic mock when no usable provider is configured.
func newDrafter(cfg config.Config, logger zerolog.Logger) ai.Drafter {
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		drafter, err := ai.NewOpenAIDrafter(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Logger: logger,
		})
		if err == nil {
			return drafter
		}
		logger.Warn().Err(err).Msg("openai drafter unavailable, using mock")
	}

	return ai.NewMockDrafter()
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
