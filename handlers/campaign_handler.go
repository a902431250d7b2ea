package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/lead-notification-service/internal/campaign"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/pkg/response"
	"github.com/onurcolak/lead-notification-service/pkg/validator"
)

type campaignRunner interface {
	Run(ctx context.Context, p campaign.Params) (*domain.CampaignRunResult, error)
}

type CampaignHandler struct {
	runner campaignRunner
}

func NewCampaignHandler(runner campaignRunner) *CampaignHandler {
	return &CampaignHandler{runner: runner}
}

// RunCampaign godoc
// @Summary Run a messaging campaign
// @Description Selects leads created in the date range and sends them a template; dryRun composes without sending
// @Tags campaigns
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API key for campaigns"
// @Param request body campaign.Params true "Campaign parameters"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/run [post]
func (h *CampaignHandler) RunCampaign(c echo.Context) error {
	var params campaign.Params
	if err := c.Bind(&params); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&params); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.runner.Run(c.Request().Context(), params)
	switch {
	case err == nil:
	case errors.Is(err, campaign.ErrInvalidParams):
		return response.UnprocessableEntity(c, err)
	case errors.Is(err, campaign.ErrNoValidLeads):
		return c.JSON(http.StatusNotFound, response.SuccessResponse{
			Success: false,
			Message: "No valid leads found for the specified criteria",
			Data:    result,
		})
	default:
		return response.FromError(c, err)
	}

	message := "Campaign completed"
	if result.DryRun {
		message = "Dry run completed, nothing was sent"
	}

	return response.OkWithMessage(c, message, result)
}
