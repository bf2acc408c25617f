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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestbox-go-api/internal/config"
	"github.com/noah-isme/suggestbox-go-api/internal/database"
	"github.com/noah-isme/suggestbox-go-api/internal/handler"
	"github.com/noah-isme/suggestbox-go-api/internal/middleware"
	"github.com/noah-isme/suggestbox-go-api/internal/models"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
	"github.com/noah-isme/suggestbox-go-api/internal/router"
	"github.com/noah-isme/suggestbox-go-api/internal/service"
	"github.com/noah-isme/suggestbox-go-api/pkg/mailer"
	"github.com/noah-isme/suggestbox-go-api/pkg/push"
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

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(
			&models.Suggestion{},
			&models.Admin{},
			&models.PushSubscription{},
			&models.NotificationLog{},
		); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	// Redis backs the duplicate-create guard; the API works without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, duplicate submission guard disabled")
	}

	// NATS fan-out of suggestion events is optional as well.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	pushService := push.New(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubscriber,
	}, logger)
	if !pushService.Enabled() {
		logger.Warn().Msg("vapid keys not configured, push notifications disabled")
	}

	mailService := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.SMTPFromEmail,
		FromName:  cfg.SMTPFromName,
		ReplyTo:   cfg.SMTPReplyTo,
		UseTLS:    cfg.SMTPUseTLS,
		UseSSL:    cfg.SMTPUseSSL,
	}, logger)
	if !mailService.Enabled() {
		logger.Warn().Msg("smtp not configured, answer emails disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	suggestionRepo := repository.NewSuggestionRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	pushSubRepo := repository.NewPushSubscriptionRepository(db)
	notificationLogRepo := repository.NewNotificationLogRepository(db)

	notificationService := service.NewNotificationService(pushSubRepo, notificationLogRepo, pushService, mailService, natsConn, cfg.PublicBaseURL, logger)
	suggestionService := service.NewSuggestionService(suggestionRepo, redisClient, validate, notificationService, logger)
	authService := service.NewAuthService(adminRepo, cfg.JWTSecret, cfg.TokenTTL, logger)

	suggestionHandler := handler.NewSuggestionHandler(suggestionService, logger)
	adminHandler := handler.NewAdminHandler(authService, suggestionService, logger)
	pushHandler := handler.NewPushHandler(pushSubRepo, validate, cfg.VAPIDPublicKey, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		SuggestionHandler: suggestionHandler,
		AdminHandler:      adminHandler,
		PushHandler:       pushHandler,
		AdminAuth:         middleware.AdminProtected(authService),
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
