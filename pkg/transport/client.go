package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/metrics"
)

type limiter interface {
	Acquire(ctx context.Context) error
}

// providerResponse covers both the primary API and the relay, which report the
// accepted message id under different keys.
type providerResponse struct {
	ID          string `json:"id"`
	MessageID   string `json:"messageId"`
	MessageIDSn string `json:"message_id"`
	ErrorCode   string `json:"error_code"`
	Error       string `json:"error"`
}

func (r *providerResponse) messageID() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.MessageID != "":
		return r.MessageID
	default:
		return r.MessageIDSn
	}
}

// Client sends composed template payloads. Every send waits once on the shared
// rate limiter, then tries the primary API and, when it answers with a non-2xx
// status, the relay exactly once.
type Client struct {
	httpClient    *resty.Client
	limiter       limiter
	baseURL       string
	integrationID string
}

func NewClient(cfg environments.TransportConfig, l limiter) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.AuthToken)

	return &Client{
		httpClient:    client,
		limiter:       l,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		integrationID: cfg.RelayIntegrationID,
	}
}

func (c *Client) Send(ctx context.Context, payload *domain.MessagePayload) domain.SendResult {
	if err := c.limiter.Acquire(ctx); err != nil {
		return c.fail(domain.SendResult{
			ErrorCode:    domain.ErrCodeInternal,
			ErrorMessage: err.Error(),
		})
	}

	req := payload.ToRequest()

	primary := c.sendPrimary(ctx, req)
	if primary.Success {
		metrics.RecordSend(domain.ViaPrimary)
		return primary
	}

	// Without a response the primary may still have accepted the message, so
	// only a received non-2xx status is safe to replay through the relay.
	if primary.StatusCode == 0 {
		primary.ErrorCode = domain.ErrCodeAPIRequestFailed
		return c.fail(primary)
	}

	logger.Warnf("Primary send failed (%s), falling back to relay", primary.ErrorMessage)
	metrics.RecordRelayFallback()

	relay := c.sendRelay(ctx, req)
	if relay.Success {
		metrics.RecordSend(domain.ViaRelay)
		return relay
	}

	relay.ErrorCode = domain.ErrCodeWebhookFailed
	relay.ErrorMessage = fmt.Sprintf("primary: %s; relay: %s", primary.ErrorMessage, relay.ErrorMessage)
	return c.fail(relay)
}

func (c *Client) sendPrimary(ctx context.Context, req domain.TemplateRequest) domain.SendResult {
	return c.post(ctx, c.baseURL+"/messages", req, domain.ViaPrimary)
}

func (c *Client) sendRelay(ctx context.Context, req domain.TemplateRequest) domain.SendResult {
	envelope := domain.RelayEnvelope{
		IntegrationID: c.integrationID,
		Action:        domain.RelayActionSendTemplate,
		Data:          req,
	}
	return c.post(ctx, c.baseURL+"/relay", envelope, domain.ViaRelay)
}

func (c *Client) post(ctx context.Context, url string, body any, via string) domain.SendResult {
	var parsed providerResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post(url)

	duration := time.Since(startTime)

	result := domain.SendResult{Via: via}

	if err != nil {
		result.ErrorMessage = fmt.Sprintf("request failed: %v", err)
		return result
	}

	logger.Infof("Transport %s request to %s completed in %v (status: %d)", via, url, duration, resp.StatusCode())

	result.StatusCode = resp.StatusCode()
	result.RawResponse = resp.String()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		result.ErrorCode = stableCode(parsed.ErrorCode)
		result.ErrorMessage = fmt.Sprintf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
		return result
	}

	// A 2xx means the provider accepted the message; a missing id only costs
	// delivery tracking.
	result.Success = true
	result.TransportMessageID = parsed.messageID()
	if result.TransportMessageID == "" {
		logger.Warnf("Transport %s accepted the message without an id: %s", via, resp.String())
	}
	return result
}

// stableCode keeps a provider error code only when it is one of ours.
func stableCode(code string) string {
	switch code {
	case domain.ErrCodeMediaUnsupported,
		domain.ErrCodeButtonVariablesUnsupported,
		domain.ErrCodeTemplateNotReady,
		domain.ErrCodeAPIRequestFailed,
		domain.ErrCodeWebhookFailed,
		domain.ErrCodeInternal:
		return code
	default:
		return domain.ErrCodeAPIRequestFailed
	}
}

func (c *Client) fail(result domain.SendResult) domain.SendResult {
	result.Success = false
	if result.ErrorCode == "" {
		result.ErrorCode = domain.ErrCodeInternal
	}
	metrics.RecordSendFailure(result.ErrorCode)
	return result
}

func (c *Client) RelayIntegrationID() string {
	return c.integrationID
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}
