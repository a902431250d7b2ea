package media

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

const DefaultTimeout = 10 * time.Second

const mb = 1024 * 1024

type rule struct {
	mimeTypes []string
	maxBytes  int64
}

var rules = map[domain.MediaKind]rule{
	domain.MediaImage:    {mimeTypes: []string{"image/jpeg", "image/png"}, maxBytes: 5 * mb},
	domain.MediaVideo:    {mimeTypes: []string{"video/mp4", "video/3gpp"}, maxBytes: 16 * mb},
	domain.MediaDocument: {mimeTypes: []string{"application/pdf"}, maxBytes: 100 * mb},
}

// MaxBytes returns the size limit for kind, or 0 for an unknown kind.
func MaxBytes(kind domain.MediaKind) int64 {
	return rules[kind].maxBytes
}

// Validator checks header media with a metadata-only HEAD request before any
// send is attempted.
type Validator struct {
	httpClient *resty.Client
}

func NewValidator(timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Validator{httpClient: client}
}

// Validate returns nil for an empty URL. Otherwise it issues one HEAD request
// and checks the declared content type and length against the kind's limits.
func (v *Validator) Validate(ctx context.Context, rawURL string, kind domain.MediaKind) error {
	if rawURL == "" {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", domain.ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}

	r, ok := rules[kind]
	if !ok {
		return fmt.Errorf("%w: unknown media kind %q", domain.ErrUnsupportedMimeType, kind)
	}

	resp, err := v.httpClient.R().
		SetContext(ctx).
		Head(u.String())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMediaNetwork, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: HEAD %s returned status %d", domain.ErrMediaNetwork, u.Host, resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	if !contains(r.mimeTypes, mediaType) {
		return fmt.Errorf("%w: %q is not allowed for %s (allowed: %s)",
			domain.ErrUnsupportedMimeType, mediaType, kind, strings.Join(r.mimeTypes, ", "))
	}

	if lengthHeader := resp.Header().Get("Content-Length"); lengthHeader != "" {
		size, err := strconv.ParseInt(lengthHeader, 10, 64)
		if err == nil && size > r.maxBytes {
			return fmt.Errorf("%w: %d bytes exceeds %d MB limit for %s",
				domain.ErrSizeExceeded, size, r.maxBytes/mb, kind)
		}
	} else {
		logger.Debugf("No Content-Length for %s media at %s, skipping size check", kind, u.Host)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
