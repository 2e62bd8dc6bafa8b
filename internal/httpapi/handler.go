package httpapi

import (
	"encoding/json"
	"hash/fnv"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	recomlitemw "github.com/recomlite/recomlite-server/internal/middleware"
	"github.com/recomlite/recomlite-server/internal/orchestrator"
)

// Handler exposes the orchestrator over HTTP.
type Handler struct {
	logger zerolog.Logger
	orch   *orchestrator.Orchestrator
}

// NewHandler builds a Handler.
func NewHandler(logger zerolog.Logger, orch *orchestrator.Orchestrator) *Handler {
	return &Handler{logger: logger, orch: orch}
}

type interactionRequest struct {
	UserToken string  `json:"user_token"`
	ItemToken string  `json:"item_token"`
	EventType string  `json:"event_type"`
	Weight    float64 `json:"weight"`
}

// RecordInteraction handles POST /v1/interactions.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not decode request body")
		return
	}
	if req.UserToken == "" || req.ItemToken == "" || req.EventType == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_token, item_token and event_type are required")
		return
	}

	if err := h.orch.RecordInteraction(r.Context(), req.UserToken, req.ItemToken, req.EventType, req.Weight); err != nil {
		h.logger.Error().Err(err).Str("user_token", req.UserToken).Str("item_token", req.ItemToken).Msg("record interaction failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record interaction")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type recommendationResponse struct {
	UserToken       string             `json:"user_token"`
	Recommendations []recommendedItem  `json:"recommendations"`
}

type recommendedItem struct {
	ItemToken string  `json:"item_token"`
	Score     float64 `json:"score"`
}

// GetRecommendations handles GET /v1/users/{token}/recommendations.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user token is required")
		return
	}

	limit := queryInt(r, "limit", 0)

	// A fresh math/rand source per request keeps epsilon dithering
	// non-deterministic across requests without sharing a *rand.Rand
	// (which is not safe for concurrent use) across goroutines.
	rng := rand.New(rand.NewSource(requestSeed(r)))

	recs, err := h.orch.GetRecommendations(r.Context(), token, limit, rng)
	if err != nil {
		h.logger.Error().Err(err).Str("user_token", token).Msg("get recommendations failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to compute recommendations")
		return
	}

	out := recommendationResponse{UserToken: token, Recommendations: make([]recommendedItem, 0, len(recs))}
	for _, rec := range recs {
		out.Recommendations = append(out.Recommendations, recommendedItem{ItemToken: rec.Token, Score: rec.Score})
	}

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// requestSeed derives a deterministic-per-request, varying-across-requests
// seed from the request id assigned by middleware.RequestID, so repeated
// requests with the same id (e.g. client retries) dither identically.
func requestSeed(r *http.Request) int64 {
	id := recomlitemw.RequestIDFromContext(r.Context())
	if id == "" {
		return 1
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64())
}
