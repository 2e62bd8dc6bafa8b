package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/v1/recommendations", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rw.Code)
	}
	if rw.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected Access-Control-Allow-Origin to be set")
	}
}

func TestSecurityHeadersSet(t *testing.T) {
	h := SecurityHeaders(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rw.Header().Get(name) == "" {
			t.Fatalf("expected %s header to be set", name)
		}
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})
	h := RequestID(inner)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if seen == "" {
		t.Fatal("expected a generated request id in context")
	}
	if rw.Header().Get(requestIDHeader) != seen {
		t.Fatal("expected response header to echo the context request id")
	}
}

func TestRequestIDPreservesCaller(t *testing.T) {
	h := RequestID(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-supplied")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if rw.Header().Get(requestIDHeader) != "caller-supplied" {
		t.Fatalf("expected caller-supplied id to be preserved, got %s", rw.Header().Get(requestIDHeader))
	}
}

func TestAPIKeyAuthRejectsMissingKey(t *testing.T) {
	h := APIKeyAuth("Authorization", map[string]bool{"secret": true})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestAPIKeyAuthAcceptsBearer(t *testing.T) {
	h := APIKeyAuth("Authorization", map[string]bool{"secret": true})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}

func TestAPIKeyAuthDisabledWhenNoKeysConfigured(t *testing.T) {
	h := APIKeyAuth("Authorization", nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected pass-through 200 when no keys configured, got %d", rw.Code)
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	logger := zerolog.New(io.Discard)
	rl := NewRateLimiter(logger, true, 2)
	h := rl.Handler(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != http.StatusOK {
			t.Fatalf("expected request %d to be allowed, got %d", i, rw.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding limit, got %d", rw.Code)
	}
}

func TestRateLimiterDisabledPassesThrough(t *testing.T) {
	logger := zerolog.New(io.Discard)
	rl := NewRateLimiter(logger, false, 1)
	h := rl.Handler(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != http.StatusOK {
			t.Fatalf("expected request %d to pass through disabled limiter, got %d", i, rw.Code)
		}
	}
}
