package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/lead-notification-service/internal/delivery"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/response"
)

// maxWebhookBody caps how much of an inbound delivery webhook is read.
const maxWebhookBody = 1 << 20

type statusReconciler interface {
	HandlePayload(ctx context.Context, body []byte) (*delivery.Summary, error)
}

type WebhookHandler struct {
	reconciler  statusReconciler
	verifyToken string
}

func NewWebhookHandler(reconciler statusReconciler, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		reconciler:  reconciler,
		verifyToken: verifyToken,
	}
}

// Verify godoc
// @Summary Verify the webhook subscription
// @Description Echoes hub.challenge when hub.verify_token matches the configured token
// @Tags webhooks
// @Produce plain
// @Param hub.mode query string false "Must be subscribe when present"
// @Param hub.verify_token query string true "Verification token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} response.ErrorResponse
// @Router /webhook [get]
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode != "" && mode != "subscribe" {
		logger.Warnf("Webhook verification with unexpected mode %q", mode)
		return response.Forbidden(c, "Verification failed")
	}

	if h.verifyToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		logger.Warnf("Webhook verification failed: token mismatch")
		return response.Forbidden(c, "Verification failed")
	}

	logger.Infof("Webhook verified")
	return c.String(http.StatusOK, challenge)
}

// Receive godoc
// @Summary Receive delivery status events
// @Description Applies delivery status updates; always 200 unless the body is not valid JSON
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /webhook/delivery [post]
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		logger.Warnf("Failed to read webhook body: %v", err)
		return response.BadRequestWithMessage(c, "Unable to read request body")
	}

	summary, err := h.reconciler.HandlePayload(c.Request().Context(), body)
	if err != nil {
		if errors.Is(err, delivery.ErrMalformedPayload) {
			logger.Warnf("Rejected webhook payload: %v", err)
			return response.BadRequestWithMessage(c, "Invalid JSON payload")
		}
		// Anything else is acknowledged so the provider does not retry.
		logger.Errorf("Webhook processing failed: %v", err)
		return response.OkWithMessage(c, "Received", nil)
	}

	return response.OkWithMessage(c, "Received", summary)
}
