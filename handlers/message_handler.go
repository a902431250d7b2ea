package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/lead-notification-service/internal/composer"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/service"
	"github.com/onurcolak/lead-notification-service/pkg/response"
	"github.com/onurcolak/lead-notification-service/pkg/validator"
)

type messageService interface {
	SendTemplate(ctx context.Context, req service.SendRequest) (*service.SendOutcome, error)
	GetAllMessages(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.MessageRecord, int64, error)
	GetStats(ctx context.Context) (*domain.MessageStats, error)
	GetCachedStatuses(ctx context.Context) (map[string]*domain.StatusCache, error)
}

type MessageHandler struct {
	service messageService
}

func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

type SendMessageRequest struct {
	LeadID          *int64           `json:"leadId,omitempty"`
	Phone           string           `json:"phone" validate:"required"`
	TemplateName    string           `json:"templateName" validate:"required,template_name"`
	Language        string           `json:"language,omitempty"`
	BodyVariables   []string         `json:"bodyVariables,omitempty"`
	HeaderMediaURL  string           `json:"headerMediaUrl,omitempty" validate:"omitempty,url"`
	HeaderMediaType domain.MediaKind `json:"headerMediaType,omitempty" validate:"omitempty,oneof=image video document"`
	CallbackData    string           `json:"callbackData,omitempty" validate:"omitempty,max=512"`
}

// SendMessage godoc
// @Summary Send a template message
// @Description Composes, validates and sends one template message; the attempt is recorded either way
// @Tags messages
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Param message body SendMessageRequest true "Message to send"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/send [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	outcome, err := h.service.SendTemplate(c.Request().Context(), service.SendRequest{
		LeadID: req.LeadID,
		Request: composer.Request{
			Phone:           req.Phone,
			TemplateName:    req.TemplateName,
			Language:        req.Language,
			BodyVariables:   req.BodyVariables,
			HeaderMediaURL:  req.HeaderMediaURL,
			HeaderMediaType: req.HeaderMediaType,
			CallbackData:    req.CallbackData,
		},
	})
	if err != nil {
		return response.FromError(c, err)
	}

	if !outcome.Result.Success {
		return c.JSON(sendFailureStatus(outcome.Result.ErrorCode), response.ErrorResponse{
			Success: false,
			Error:   outcome.Result.ErrorMessage,
			Code:    outcome.Result.ErrorCode,
		})
	}

	return response.Created(c, "Message sent successfully", outcome)
}

// sendFailureStatus maps a failed send's code: rejected input is 422, a
// failed provider call is 502.
func sendFailureStatus(code string) int {
	switch code {
	case domain.ErrCodeInvalidPhone,
		domain.ErrCodeMediaUnsupported,
		domain.ErrCodeButtonVariablesUnsupported,
		domain.ErrCodeTemplateNotReady:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeAPIRequestFailed, domain.ErrCodeWebhookFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetAllMessages godoc
// @Summary Get message records
// @Description Retrieves a paginated list of message records with optional status filter
// @Tags messages
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (queued, sent, delivered, read, failed)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetAllMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.MessageStatus
	if raw := c.QueryParam("status"); raw != "" {
		parsed, ok := domain.ParseMessageStatus(raw)
		if !ok {
			return response.BadRequestWithMessage(c, fmt.Sprintf("unknown status %q", raw))
		}
		status = &parsed
	}

	messages, totalCount, err := h.service.GetAllMessages(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// GetStats godoc
// @Summary Get message statistics
// @Description Returns count of message records by status
// @Tags messages
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/stats [get]
func (h *MessageHandler) GetStats(c echo.Context) error {
	stats, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Ok(c, map[string]any{
		"queued":    stats.Queued,
		"sent":      stats.Sent,
		"delivered": stats.Delivered,
		"read":      stats.Read,
		"failed":    stats.Failed,
		"total":     stats.Total(),
	})
}

// GetCachedStatuses godoc
// @Summary Get cached delivery statuses
// @Description Returns the latest status snapshot per transport message id from the cache
// @Tags messages
// @Produce json
// @Param X-API-Key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/cached [get]
func (h *MessageHandler) GetCachedStatuses(c echo.Context) error {
	cached, err := h.service.GetCachedStatuses(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, cached)
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	page := defaultPage
	if raw := c.QueryParam("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if raw := c.QueryParam("pageSize"); raw != "" {
		ps, err := strconv.Atoi(raw)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
		pageSize = ps
	}

	return page, pageSize, nil
}
