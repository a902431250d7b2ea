package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

func newMediaServer(t *testing.T, contentType string, size int64, status int, hits *int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD request, got %s", r.Method)
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		if size >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestValidate_EmptyURLIsValid(t *testing.T) {
	v := NewValidator(time.Second)
	if err := v.Validate(context.Background(), "", domain.MediaImage); err != nil {
		t.Fatalf("expected nil for empty url, got %v", err)
	}
}

func TestValidate_InvalidURL(t *testing.T) {
	v := NewValidator(time.Second)

	for _, raw := range []string{"not a url", "/relative/path.png", "ftp://example.com/a.png"} {
		err := v.Validate(context.Background(), raw, domain.MediaImage)
		if !errors.Is(err, domain.ErrInvalidURL) {
			t.Fatalf("Validate(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestValidate_AcceptsAllowedType(t *testing.T) {
	var hits int32
	srv := newMediaServer(t, "image/jpeg; charset=binary", 1024, http.StatusOK, &hits)

	v := NewValidator(time.Second)
	if err := v.Validate(context.Background(), srv.URL+"/brochure.jpg", domain.MediaImage); err != nil {
		t.Fatalf("expected valid media, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected exactly 1 HEAD request, got %d", hits)
	}
}

func TestValidate_UnsupportedMimeType(t *testing.T) {
	srv := newMediaServer(t, "image/gif", 1024, http.StatusOK, nil)

	v := NewValidator(time.Second)
	err := v.Validate(context.Background(), srv.URL+"/a.gif", domain.MediaImage)
	if !errors.Is(err, domain.ErrUnsupportedMimeType) {
		t.Fatalf("expected ErrUnsupportedMimeType, got %v", err)
	}
}

func TestValidate_SizeExceeded(t *testing.T) {
	tests := []struct {
		kind        domain.MediaKind
		contentType string
	}{
		{domain.MediaImage, "image/png"},
		{domain.MediaVideo, "video/mp4"},
		{domain.MediaDocument, "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			srv := newMediaServer(t, tt.contentType, MaxBytes(tt.kind)+1, http.StatusOK, nil)

			v := NewValidator(time.Second)
			err := v.Validate(context.Background(), srv.URL+"/file", tt.kind)
			if !errors.Is(err, domain.ErrSizeExceeded) {
				t.Fatalf("expected ErrSizeExceeded, got %v", err)
			}
		})
	}
}

func TestValidate_AtLimitIsValid(t *testing.T) {
	srv := newMediaServer(t, "video/3gpp", MaxBytes(domain.MediaVideo), http.StatusOK, nil)

	v := NewValidator(time.Second)
	if err := v.Validate(context.Background(), srv.URL+"/clip.3gp", domain.MediaVideo); err != nil {
		t.Fatalf("expected media at the limit to be valid, got %v", err)
	}
}

func TestValidate_NonSuccessStatusIsNetworkError(t *testing.T) {
	srv := newMediaServer(t, "image/png", 10, http.StatusNotFound, nil)

	v := NewValidator(time.Second)
	err := v.Validate(context.Background(), srv.URL+"/missing.png", domain.MediaImage)
	if !errors.Is(err, domain.ErrMediaNetwork) {
		t.Fatalf("expected ErrMediaNetwork, got %v", err)
	}
}

func TestValidate_UnreachableHostIsNetworkError(t *testing.T) {
	srv := newMediaServer(t, "image/png", 10, http.StatusOK, nil)
	url := srv.URL + "/a.png"
	srv.Close()

	v := NewValidator(time.Second)
	err := v.Validate(context.Background(), url, domain.MediaImage)
	if !errors.Is(err, domain.ErrMediaNetwork) {
		t.Fatalf("expected ErrMediaNetwork, got %v", err)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	var hits int32
	srv := newMediaServer(t, "audio/ogg", 10, http.StatusOK, &hits)

	v := NewValidator(time.Second)
	err := v.Validate(context.Background(), srv.URL+"/a.ogg", domain.MediaKind("audio"))
	if !errors.Is(err, domain.ErrUnsupportedMimeType) {
		t.Fatalf("expected ErrUnsupportedMimeType, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no request for an unknown kind, got %d", hits)
	}
}
