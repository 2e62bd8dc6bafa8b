package middleware

import (
	"context"
	"net/http"
	"strings"
)

const apiKeyContextKey contextKey = "api_key"

// APIKeyAuth rejects requests that don't present one of the configured
// keys via headerName, read either as a raw value or a "Bearer <key>"
// value. An empty keys set disables the check entirely — recomlite's
// single-tenant/self-hosted deployments often run without one.
func APIKeyAuth(headerName string, keys map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(headerName)
			key := raw
			if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				key = raw[len("bearer "):]
			}
			if key == "" || !keys[key] {
				http.Error(w, `{"error":"unauthorized","message":"missing or invalid API key"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), apiKeyContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromContext returns the key validated by APIKeyAuth, or "".
func APIKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(apiKeyContextKey).(string); ok {
		return v
	}
	return ""
}
