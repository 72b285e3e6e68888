package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loan-forecast/internal/api/handler/dto"
	"loan-forecast/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-jwt-secret-key",
		TokenTTL:  time.Hour,
	}
}

func postToken(h *AuthHandler, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.GenerateBearerToken(rec, req)
	return rec
}

func TestGenerateBearerToken(t *testing.T) {
	t.Run("successfully generates token", func(t *testing.T) {
		h := NewAuthHandler(newTestAuthConfig(), logger)
		issuedAt := time.Now().Truncate(time.Second)
		h.now = func() time.Time { return issuedAt }

		rec := postToken(h, dto.TokenRequest{Username: "analyst"})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.True(t, strings.HasPrefix(resp.Token, "Bearer "))
		assert.True(t, resp.ExpiresAt.Equal(issuedAt.Add(time.Hour)))

		token, err := jwt.Parse(strings.TrimPrefix(resp.Token, "Bearer "), func(*jwt.Token) (any, error) {
			return []byte("test-jwt-secret-key"), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		require.NoError(t, err)
		sub, err := token.Claims.GetSubject()
		require.NoError(t, err)
		assert.Equal(t, "analyst", sub)
	})

	t.Run("fails on missing username", func(t *testing.T) {
		h := NewAuthHandler(newTestAuthConfig(), logger)

		rec := postToken(h, dto.TokenRequest{Username: "  "})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "username", resp.Error.Field)
	})

	t.Run("fails on invalid body", func(t *testing.T) {
		h := NewAuthHandler(newTestAuthConfig(), logger)
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader("{invalid"))
		rec := httptest.NewRecorder()

		h.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires the configured api key", func(t *testing.T) {
		cfg := newTestAuthConfig()
		cfg.APIKey = "k-123"
		h := NewAuthHandler(cfg, logger)

		assert.Equal(t, http.StatusUnauthorized, postToken(h, dto.TokenRequest{Username: "analyst", APIKey: "wrong"}).Code)
		assert.Equal(t, http.StatusOK, postToken(h, dto.TokenRequest{Username: "analyst", APIKey: "k-123"}).Code)
	})

	t.Run("missing secret is an internal error", func(t *testing.T) {
		cfg := newTestAuthConfig()
		cfg.JWTSecret = ""
		h := NewAuthHandler(cfg, logger)

		assert.Equal(t, http.StatusInternalServerError, postToken(h, dto.TokenRequest{Username: "analyst"}).Code)
	})
}
