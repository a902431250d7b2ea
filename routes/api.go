package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/handlers"
	"github.com/onurcolak/lead-notification-service/internal/middlewares"
	"github.com/onurcolak/lead-notification-service/pkg/metrics"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Message   *handlers.MessageHandler
	Campaign  *handlers.CampaignHandler
	Webhook   *handlers.WebhookHandler
	Call      *handlers.CallHandler
	Scheduler *handlers.SchedulerHandler
}

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(e *echo.Echo, h Handlers, cfg *environments.Config) {
	e.Use(metrics.Metrics)

	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Provider webhooks authenticate with the verify token handshake only.
	e.GET("/webhook", h.Webhook.Verify)
	e.POST("/webhook", h.Webhook.Receive)
	e.POST("/webhook/delivery", h.Webhook.Receive)

	v1 := e.Group("/api/v1")

	messages := v1.Group("/messages", middlewares.APIKeyAuth(cfg.Auth.MessagesAPIKey))
	messages.GET("", h.Message.GetAllMessages)
	messages.POST("/send", h.Message.SendMessage)
	messages.GET("/stats", h.Message.GetStats)
	messages.GET("/cached", h.Message.GetCachedStatuses)

	calls := v1.Group("/calls", middlewares.APIKeyAuth(cfg.Auth.MessagesAPIKey))
	calls.POST("", h.Call.CreateCall)
	calls.POST("/process", h.Call.ProcessCalls)
	calls.GET("/pending", h.Call.PendingCalls)

	campaigns := v1.Group("/campaigns", middlewares.APIKeyAuth(cfg.Auth.CampaignsAPIKey))
	campaigns.POST("/run", h.Campaign.RunCampaign)

	schedulerGroup := v1.Group("/scheduler", middlewares.APIKeyAuth(cfg.Auth.SchedulerAPIKey))
	schedulerGroup.POST("/start", h.Scheduler.StartScheduler)
	schedulerGroup.POST("/stop", h.Scheduler.StopScheduler)
	schedulerGroup.GET("/status", h.Scheduler.GetSchedulerStatus)
}
