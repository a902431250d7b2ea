package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/handlers"
	"github.com/onurcolak/lead-notification-service/internal/calls"
	"github.com/onurcolak/lead-notification-service/internal/campaign"
	"github.com/onurcolak/lead-notification-service/internal/composer"
	"github.com/onurcolak/lead-notification-service/internal/delivery"
	"github.com/onurcolak/lead-notification-service/internal/leads"
	"github.com/onurcolak/lead-notification-service/internal/media"
	"github.com/onurcolak/lead-notification-service/internal/middlewares"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/internal/ratelimit"
	"github.com/onurcolak/lead-notification-service/internal/repository"
	"github.com/onurcolak/lead-notification-service/internal/scheduler"
	"github.com/onurcolak/lead-notification-service/internal/service"
	"github.com/onurcolak/lead-notification-service/pkg/database"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/redis"
	"github.com/onurcolak/lead-notification-service/pkg/transport"
	"github.com/onurcolak/lead-notification-service/pkg/validator"
	"github.com/onurcolak/lead-notification-service/routes"

	_ "github.com/onurcolak/lead-notification-service/docs" // swagger docs
)

// @title Lead Notification Service API
// @version 1.0
// @description IVR lead ingestion, template messaging campaigns and delivery reconciliation

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	cfg := environments.Load()

	// Hard-fail if required secrets are missing
	required := map[string]string{
		"TRANSPORT_AUTH_TOKEN":           cfg.Transport.AuthToken,
		"TRANSPORT_RELAY_INTEGRATION_ID": cfg.Transport.RelayIntegrationID,
		"WEBHOOK_VERIFY_TOKEN":           cfg.Webhook.VerifyToken,
		"MESSAGES_API_KEY":               cfg.Auth.MessagesAPIKey,
		"CAMPAIGNS_API_KEY":              cfg.Auth.CampaignsAPIKey,
		"SCHEDULER_API_KEY":              cfg.Auth.SchedulerAPIKey,
	}
	for key, value := range required {
		if value == "" {
			logger.Fatalf("%s is required but not set", key)
		}
	}

	logger.Infof("Starting Lead Notification Service...")

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if environments.GetEnvAsBool("SEED_DATA", false) {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// A nil client keeps the service running with caching disabled.
	redisClient, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, caching disabled: %v", err)
		redisClient = nil
	}

	leadRepo := repository.NewLeadRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	callRepo := repository.NewCallRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	normalizer := phone.NewNormalizer(cfg.Phone.HomeCountryCode)
	limiter := ratelimit.New(cfg.RateLimit.Interval, cfg.RateLimit.Permits)

	transportClient := transport.NewClient(cfg.Transport, limiter)
	logger.Infof("Transport configured: %s (relay integration: %s)", transportClient.GetBaseURL(), transportClient.RelayIntegrationID())

	messageComposer := composer.New(normalizer, media.NewValidator(cfg.Media.Timeout))
	messageService := service.NewMessageService(messageRepo, messageComposer, transportClient, redisClient)

	selector := campaign.NewSelector(leadRepo, projectRepo, normalizer, cfg.Campaign.TrackingURL)
	runner := campaign.NewRunner(selector, messageService, cfg.Campaign)

	reconciler := delivery.NewReconciler(messageRepo, redisClient)

	callProcessor := leads.NewCallProcessor(
		callRepo,
		calls.NewDeduplicator(normalizer, leadRepo),
		leads.NewIngestor(leadRepo, projectRepo, callRepo),
		cfg.Ingest.BatchSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(callProcessor, cfg.Ingest.Interval)
	sched.SetAlerting(cfg.Alert.WebhookURL, cfg.Alert.IterationCount)

	h := routes.Handlers{
		Health:    handlers.NewHealthHandler(db, redisClient),
		Message:   handlers.NewMessageHandler(messageService),
		Campaign:  handlers.NewCampaignHandler(runner),
		Webhook:   handlers.NewWebhookHandler(reconciler, cfg.Webhook.VerifyToken),
		Call:      handlers.NewCallHandler(callRepo, sched),
		Scheduler: handlers.NewSchedulerHandler(sched, ctx, cfg),
	}

	if environments.GetEnvAsBool("AUTO_START_SCHEDULER", true) {
		logger.Infof("Auto-starting call ingestion scheduler...")
		if err := sched.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start scheduler: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
		},
	}))

	routes.RegisterRoutes(e, h, cfg)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	if sched.IsRunning() {
		logger.Infof("Stopping scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler: %v", err)
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler stop timeout, forcing shutdown")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		logger.Errorf("Error closing Redis: %v", err)
	}

	logger.Infof("Graceful shutdown completed")
}
