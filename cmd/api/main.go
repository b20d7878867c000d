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

	"github.com/credtrack/credtrack-api/internal/config"
	"github.com/credtrack/credtrack-api/internal/database"
	"github.com/credtrack/credtrack-api/internal/handler"
	"github.com/credtrack/credtrack-api/internal/middleware"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
	"github.com/credtrack/credtrack-api/internal/router"
	"github.com/credtrack/credtrack-api/internal/service"
	cloud "github.com/credtrack/credtrack-api/pkg/cloudinary"
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
		&models.User{},
		&models.Allocation{},
		&models.Activity{},
		&models.ActivityFile{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, broker fan-out disabled")
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	activityFileRepo := repository.NewActivityFileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	userService := service.NewUserService(userRepo, validate, notificationService, auditService, logger)
	allocationService := service.NewAllocationService(allocationRepo, userRepo, validate, notificationService, auditService, logger)
	activityService := service.NewActivityService(activityRepo, allocationRepo, userRepo, validate, notificationService, auditService, logger)
	evidenceService := service.NewEvidenceService(activityFileRepo, activityRepo, allocationRepo, uploader, logger)
	reportService := service.NewReportService(activityRepo, allocationRepo, userRepo, redisClient, cfg.ReportCacheTTL, logger)

	activityHandler := handler.NewActivityHandler(activityService, logger)
	evidenceHandler := handler.NewEvidenceHandler(evidenceService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	allocationHandler := handler.NewAllocationHandler(allocationService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:     activityHandler,
		EvidenceHandler:     evidenceHandler,
		UserHandler:         userHandler,
		AllocationHandler:   allocationHandler,
		NotificationHandler: notificationHandler,
		ReportHandler:       reportHandler,
		AuditHandler:        auditHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		ReviewRateLimiter:   middleware.RateLimit("review", cfg.ReviewRateLimitMax, cfg.ReviewRateLimitWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
