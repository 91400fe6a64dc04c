package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stuffbox-backend/internal/services"

	"github.com/stretchr/testify/assert"
)

type stubAuth map[string]string

func (s stubAuth) Authenticate(_ context.Context, token string) (string, error) {
	if token == "down" {
		return "", services.ErrStoreUnavailable
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("unknown token")
}

func TestAuthMiddleware(t *testing.T) {
	var seenUser, seenToken string
	h := AuthMiddleware(stubAuth{"good": "u1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = GetUserID(r.Context())
		seenToken = GetToken(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown", "Bearer bad", http.StatusUnauthorized},
		{"store down", "Bearer down", http.StatusServiceUnavailable},
		{"ok", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
	assert.Equal(t, "u1", seenUser)
	assert.Equal(t, "good", seenToken)
}

func TestRateLimiterPerCaller(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	post := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post("a"))
	assert.Equal(t, http.StatusOK, post("a"))
	assert.Equal(t, http.StatusTooManyRequests, post("a"))
	assert.Equal(t, http.StatusOK, post("b"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rl.Prune(-time.Second)
	assert.Equal(t, http.StatusOK, post("a"))
}
