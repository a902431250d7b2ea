package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/internal/domain"
)

type countingLimiter struct {
	calls int
	err   error
}

func (l *countingLimiter) Acquire(ctx context.Context) error {
	l.calls++
	return l.err
}

type recordedRequest struct {
	path string
	auth string
	body map[string]any
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []recordedRequest

	primaryStatus int
	primaryBody   string
	relayStatus   int
	relayBody     string
}

func (p *fakeProvider) snapshot() []recordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedRequest(nil), p.requests...)
}

func (p *fakeProvider) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		p.mu.Lock()
		p.requests = append(p.requests, recordedRequest{
			path: r.URL.Path,
			auth: r.Header.Get("Authorization"),
			body: body,
		})
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/messages":
			w.WriteHeader(p.primaryStatus)
			_, _ = w.Write([]byte(p.primaryBody))
		case "/relay":
			w.WriteHeader(p.relayStatus)
			_, _ = w.Write([]byte(p.relayBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, p *fakeProvider, relayID string) (*Client, *countingLimiter) {
	t.Helper()

	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)

	l := &countingLimiter{}
	c := NewClient(environments.TransportConfig{
		BaseURL:            srv.URL + "/",
		AuthToken:          "secret-token",
		RelayIntegrationID: relayID,
		Timeout:            2 * time.Second,
	}, l)

	return c, l
}

func testPayload() *domain.MessagePayload {
	return &domain.MessagePayload{
		ToPhone:       "+919876543210",
		TemplateName:  "ivr_followup",
		Language:      "en",
		BodyVariables: []string{"Asha"},
	}
}

func TestSend_PrimarySuccess(t *testing.T) {
	p := &fakeProvider{primaryStatus: http.StatusOK, primaryBody: `{"id":"wamid.primary"}`}
	c, l := newTestClient(t, p, "relay-1")

	res := c.Send(context.Background(), testPayload())

	if !res.Success || res.TransportMessageID != "wamid.primary" || res.Via != domain.ViaPrimary {
		t.Fatalf("unexpected result: %+v", res)
	}
	if l.calls != 1 {
		t.Fatalf("expected limiter acquired once, got %d", l.calls)
	}
	reqs := p.snapshot()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].auth != "Bearer secret-token" {
		t.Fatalf("expected bearer auth header, got %q", reqs[0].auth)
	}
	if reqs[0].body["type"] != "template" {
		t.Fatalf("expected template payload, got %v", reqs[0].body)
	}
}

func TestSend_FallsBackToRelayExactlyOnce(t *testing.T) {
	p := &fakeProvider{
		primaryStatus: http.StatusInternalServerError,
		primaryBody:   `{"error":"boom"}`,
		relayStatus:   http.StatusOK,
		relayBody:     `{"messageId":"relay-123"}`,
	}
	c, _ := newTestClient(t, p, "relay-1")

	res := c.Send(context.Background(), testPayload())

	if !res.Success {
		t.Fatalf("expected success through relay, got %+v", res)
	}
	if res.TransportMessageID != "relay-123" || res.Via != domain.ViaRelay {
		t.Fatalf("expected relay message id, got %+v", res)
	}
	reqs := p.snapshot()
	if len(reqs) != 2 {
		t.Fatalf("expected exactly 2 network calls, got %d", len(reqs))
	}
	if reqs[0].path != "/messages" || reqs[1].path != "/relay" {
		t.Fatalf("unexpected call order: %s then %s", reqs[0].path, reqs[1].path)
	}

	envelope := reqs[1].body
	if envelope["integrationId"] != "relay-1" || envelope["action"] != domain.RelayActionSendTemplate {
		t.Fatalf("unexpected relay envelope: %v", envelope)
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok || data["to"] != "+919876543210" {
		t.Fatalf("expected relay to wrap the same payload, got %v", envelope["data"])
	}
}

func TestSend_BothPathsFail(t *testing.T) {
	p := &fakeProvider{
		primaryStatus: http.StatusBadGateway,
		primaryBody:   `{}`,
		relayStatus:   http.StatusServiceUnavailable,
		relayBody:     `{}`,
	}
	c, _ := newTestClient(t, p, "relay-1")

	res := c.Send(context.Background(), testPayload())

	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.ErrorCode != domain.ErrCodeWebhookFailed {
		t.Fatalf("expected %s, got %s", domain.ErrCodeWebhookFailed, res.ErrorCode)
	}
	if len(p.snapshot()) != 2 {
		t.Fatalf("expected exactly 2 network calls, got %d", len(p.snapshot()))
	}
}

func TestSend_RelayUsedWithDefaultConfig(t *testing.T) {
	p := &fakeProvider{
		primaryStatus: http.StatusInternalServerError,
		primaryBody:   `{}`,
		relayStatus:   http.StatusOK,
		relayBody:     `{"messageId":"relay-9"}`,
	}
	c, _ := newTestClient(t, p, "")

	res := c.Send(context.Background(), testPayload())

	if !res.Success || res.TransportMessageID != "relay-9" || res.Via != domain.ViaRelay {
		t.Fatalf("expected relay success, got %+v", res)
	}
	reqs := p.snapshot()
	if len(reqs) != 2 || reqs[1].path != "/relay" {
		t.Fatalf("expected primary then relay, got %+v", reqs)
	}
}

func TestSend_ProviderErrorCodeIsNotLeaked(t *testing.T) {
	p := &fakeProvider{
		primaryStatus: http.StatusBadRequest,
		primaryBody:   `{"error_code":"131047","error":"re-engagement required"}`,
		relayStatus:   http.StatusBadRequest,
		relayBody:     `{"error_code":"131047"}`,
	}
	c, _ := newTestClient(t, p, "relay-1")

	res := c.Send(context.Background(), testPayload())

	if res.Success || res.ErrorCode != domain.ErrCodeWebhookFailed {
		t.Fatalf("expected %s, got %+v", domain.ErrCodeWebhookFailed, res)
	}
	if !strings.Contains(res.ErrorMessage, "131047") {
		t.Fatalf("expected provider code in the message, got %q", res.ErrorMessage)
	}
}

func TestStableCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{domain.ErrCodeTemplateNotReady, domain.ErrCodeTemplateNotReady},
		{domain.ErrCodeMediaUnsupported, domain.ErrCodeMediaUnsupported},
		{"131047", domain.ErrCodeAPIRequestFailed},
		{"", domain.ErrCodeAPIRequestFailed},
	}

	for _, tt := range tests {
		if got := stableCode(tt.in); got != tt.want {
			t.Fatalf("stableCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSend_AcceptedWithoutIDDoesNotFallBack(t *testing.T) {
	p := &fakeProvider{
		primaryStatus: http.StatusOK,
		primaryBody:   `{"status":"accepted"}`,
		relayStatus:   http.StatusOK,
		relayBody:     `{"message_id":"relay-xyz"}`,
	}
	c, _ := newTestClient(t, p, "relay-1")

	res := c.Send(context.Background(), testPayload())

	if !res.Success || res.Via != domain.ViaPrimary || res.TransportMessageID != "" {
		t.Fatalf("expected primary success without id, got %+v", res)
	}
	if len(p.snapshot()) != 1 {
		t.Fatalf("expected only the primary call, got %d", len(p.snapshot()))
	}
}

func TestSend_PrimaryUnreachableSkipsRelay(t *testing.T) {
	var relayCalls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/relay" {
			mu.Lock()
			relayCalls++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"relay-1"}`))
			return
		}
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(environments.TransportConfig{
		BaseURL:            srv.URL,
		AuthToken:          "secret-token",
		RelayIntegrationID: "relay-1",
		Timeout:            50 * time.Millisecond,
	}, &countingLimiter{})

	res := c.Send(context.Background(), testPayload())

	if res.Success || res.ErrorCode != domain.ErrCodeAPIRequestFailed {
		t.Fatalf("expected %s, got %+v", domain.ErrCodeAPIRequestFailed, res)
	}
	mu.Lock()
	defer mu.Unlock()
	if relayCalls != 0 {
		t.Fatalf("expected no relay call after a primary timeout, got %d", relayCalls)
	}
}

func TestSend_LimiterErrorSkipsNetwork(t *testing.T) {
	p := &fakeProvider{primaryStatus: http.StatusOK, primaryBody: `{"id":"x"}`}
	c, l := newTestClient(t, p, "relay-1")
	l.err = errors.New("context canceled")

	res := c.Send(context.Background(), testPayload())

	if res.Success || res.ErrorCode != domain.ErrCodeInternal {
		t.Fatalf("expected internal error, got %+v", res)
	}
	if len(p.snapshot()) != 0 {
		t.Fatalf("expected no network calls, got %d", len(p.snapshot()))
	}
}
