package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/leads"
	"github.com/onurcolak/lead-notification-service/internal/scheduler"
	"github.com/onurcolak/lead-notification-service/pkg/response"
	"github.com/onurcolak/lead-notification-service/pkg/validator"
)

type callStore interface {
	Create(ctx context.Context, call *domain.CallRecord) error
	CountPending(ctx context.Context) (int64, error)
}

type callBatchRunner interface {
	RunOnce(ctx context.Context) (*leads.BatchSummary, error)
}

type CallHandler struct {
	store  callStore
	runner callBatchRunner
	now    func() time.Time
}

func NewCallHandler(store callStore, runner callBatchRunner) *CallHandler {
	return &CallHandler{
		store:  store,
		runner: runner,
		now:    time.Now,
	}
}

type CreateCallRequest struct {
	FromPhone       string          `json:"fromPhone" validate:"required,max=32"`
	ToNumber        string          `json:"toNumber" validate:"omitempty,max=32"`
	StartTime       *time.Time      `json:"startTime,omitempty"`
	DurationSeconds int             `json:"durationSeconds" validate:"min=0"`
	RawPayload      json.RawMessage `json:"rawPayload,omitempty" swaggertype:"object"`
}

// CreateCall godoc
// @Summary Record an IVR call
// @Description Stores a raw call record; it is turned into a lead by the next ingestion run
// @Tags calls
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Param call body CreateCallRequest true "Call record"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/calls [post]
func (h *CallHandler) CreateCall(c echo.Context) error {
	var req CreateCallRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	call := &domain.CallRecord{
		FromPhone:       req.FromPhone,
		ToNumber:        req.ToNumber,
		StartTime:       h.now().UTC(),
		DurationSeconds: req.DurationSeconds,
		RawPayload:      "{}",
	}
	if req.StartTime != nil {
		call.StartTime = req.StartTime.UTC()
	}
	if len(req.RawPayload) > 0 {
		call.RawPayload = string(req.RawPayload)
	}

	if err := h.store.Create(c.Request().Context(), call); err != nil {
		return response.FromError(c, domain.NewRepositoryError("create call record", err))
	}

	return response.Created(c, "Call recorded", call)
}

// ProcessCalls godoc
// @Summary Ingest pending calls now
// @Description Runs one ingestion batch immediately instead of waiting for the scheduler
// @Tags calls
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/calls/process [post]
func (h *CallHandler) ProcessCalls(c echo.Context) error {
	summary, err := h.runner.RunOnce(c.Request().Context())
	if errors.Is(err, scheduler.ErrRunInProgress) {
		return response.Conflict(c, "An ingestion run is already in progress")
	}
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OkWithMessage(c, "Pending calls processed", summary)
}

// PendingCalls godoc
// @Summary Count pending calls
// @Tags calls
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/calls/pending [get]
func (h *CallHandler) PendingCalls(c echo.Context) error {
	count, err := h.store.CountPending(c.Request().Context())
	if err != nil {
		return response.FromError(c, domain.NewRepositoryError("count pending calls", err))
	}

	return response.Ok(c, map[string]any{"pending": count})
}
