package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Template messages accepted by a transport path",
		},
		[]string{"via"},
	)

	sendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Template sends that failed, by error code",
		},
		[]string{"code"},
	)

	relayFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_relay_fallbacks_total",
			Help: "Sends that fell back to the relay endpoint",
		},
	)

	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_status_transitions_total",
			Help: "Message status transitions applied from delivery webhooks",
		},
		[]string{"status"},
	)

	webhookEventsIgnored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_events_ignored_total",
			Help: "Delivery events dropped as unknown, duplicate or out of order",
		},
		[]string{"reason"},
	)

	callsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivr_calls_ingested_total",
			Help: "IVR calls turned into new or updated leads, by call quality",
		},
		[]string{"quality"},
	)
)

// unmatchedPath labels requests that hit no route, keeping label values bounded.
const unmatchedPath = "unmatched"

// Metrics counts requests by route template and final status. Handler errors
// are written by echo after the middleware chain returns, so their status is
// taken from the error itself.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		status := c.Response().Status
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			} else {
				status = http.StatusInternalServerError
			}
		}

		path := c.Path()
		if path == "" || errors.Is(err, echo.ErrNotFound) {
			path = unmatchedPath
		}

		method := c.Request().Method
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordSend(via string) {
	messagesSent.WithLabelValues(via).Inc()
}

func RecordSendFailure(code string) {
	sendFailures.WithLabelValues(code).Inc()
}

func RecordRelayFallback() {
	relayFallbacks.Inc()
}

func RecordStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

func RecordIgnoredEvent(reason string) {
	webhookEventsIgnored.WithLabelValues(reason).Inc()
}

func RecordCallIngested(quality string) {
	callsIngested.WithLabelValues(quality).Inc()
}
