package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/config"
	"github.com/recomlite/recomlite-server/internal/engine"
	"github.com/recomlite/recomlite-server/internal/engine/cb"
	"github.com/recomlite/recomlite-server/internal/engine/tcr"
	"github.com/recomlite/recomlite-server/internal/httpapi"
	"github.com/recomlite/recomlite-server/internal/interner"
	"github.com/recomlite/recomlite-server/internal/orchestrator"
	"github.com/recomlite/recomlite-server/internal/rerank"
	"github.com/recomlite/recomlite-server/internal/store"
)

func testRouter(t *testing.T, apiKeys map[string]bool) http.Handler {
	t.Helper()

	mem := store.NewMemory()
	logger := zerolog.New(io.Discard)

	in, err := interner.New(interner.Config{Prefix: "http-test", Store: mem, Logger: logger})
	if err != nil {
		t.Fatalf("interner.New: %v", err)
	}
	tcrEngine, err := tcr.New(tcr.Config{Prefix: "http-test:tcr", Store: mem, Logger: logger})
	if err != nil {
		t.Fatalf("tcr.New: %v", err)
	}
	epsilon, err := rerank.NewEpsilon(rerank.EpsilonConfig{Epsilon: 1.0})
	if err != nil {
		t.Fatalf("rerank.NewEpsilon: %v", err)
	}
	orch, err := orchestrator.New(orchestrator.Config{
		Logger:   logger,
		Interner: in,
		Engines:  map[string]engine.Engine{"tcr": tcrEngine, "cb": cb.New()},
		Reranker: epsilon,
	})
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}

	cfg := &config.Config{
		APIKeyHeader:     "Authorization",
		MaxBodyBytes:     1 << 20,
		RateLimitEnabled: false,
	}
	return httpapi.NewRouter(cfg, logger, orch, apiKeys)
}

func TestHealthEndpointsNoAuth(t *testing.T) {
	r := testRouter(t, map[string]bool{"secret": true})

	for _, path := range []string{"/healthz", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rw := httptest.NewRecorder()
		r.ServeHTTP(rw, req)
		if rw.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rw.Code)
		}
	}
}

func TestV1RoutesRequireAPIKey(t *testing.T) {
	r := testRouter(t, map[string]bool{"secret": true})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/alice/recommendations", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without API key, got %d", rw.Code)
	}
}

func TestRecordInteractionThenRecommend(t *testing.T) {
	r := testRouter(t, map[string]bool{"secret": true})

	post := func(userToken, itemToken string) {
		body, _ := json.Marshal(map[string]interface{}{
			"user_token": userToken,
			"item_token": itemToken,
			"event_type": "purchase",
			"weight":     5,
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/interactions", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer secret")
		rw := httptest.NewRecorder()
		r.ServeHTTP(rw, req)
		if rw.Code != http.StatusAccepted {
			t.Fatalf("expected 202 recording interaction, got %d: %s", rw.Code, rw.Body.String())
		}
	}

	post("alice", "widget")
	post("alice", "gadget")
	post("bob", "widget")
	post("bob", "gadget")
	post("bob", "doohickey")

	req := httptest.NewRequest(http.MethodGet, "/v1/users/alice/recommendations", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	var out struct {
		UserToken       string `json:"user_token"`
		Recommendations []struct {
			ItemToken string  `json:"item_token"`
			Score     float64 `json:"score"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.UserToken != "alice" {
		t.Fatalf("expected user_token alice, got %s", out.UserToken)
	}
}

func TestInteractionRejectsMalformedBody(t *testing.T) {
	r := testRouter(t, map[string]bool{"secret": true})

	req := httptest.NewRequest(http.MethodPost, "/v1/interactions", bytes.NewReader([]byte("not json")))
	req.Header.Set("Authorization", "Bearer secret")
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rw.Code)
	}
}
