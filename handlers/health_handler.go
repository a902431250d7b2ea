package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/lead-notification-service/pkg/redis"
)

type dbPinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health checks.
type HealthHandler struct {
	db           dbPinger
	cache        cachePinger
	checkTimeout time.Duration
}

func NewHealthHandler(db dbPinger, cache cachePinger) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        cache,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and component statuses (database and status cache).
// @Summary Health check
// @Description Returns overall status with database and cache connectivity results
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"
	httpStatus := http.StatusOK

	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
	} else if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
	}
	if dbStatus == "down" {
		overallStatus = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		switch err := h.cache.Ping(ctx); {
		case errors.Is(err, redis.ErrCacheDisabled):
		case err != nil:
			cacheStatus = "down"
			if overallStatus == "ok" {
				overallStatus = "degraded"
			}
		default:
			cacheStatus = "up"
		}
	}

	return c.JSON(httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{"status": dbStatus},
			"cache":    map[string]any{"status": cacheStatus},
		},
	})
}
