package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectedRouteRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/accounts", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing x-api-key header", body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Code)
}

func TestProtectedRouteRejectsUnknownKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/accounts", "dodo_bogus", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid API key", body.Error)
}

func TestProtectedRouteAcceptsValidKey(t *testing.T) {
	env := newTestEnv(t)
	_, key := env.seedPrincipal(t, "0.00")

	rec := env.do(t, http.MethodGet, "/accounts", key, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRoutesScopedToPrincipal(t *testing.T) {
	env := newTestEnv(t)
	_, keyA := env.seedPrincipal(t, "0.00")
	_, keyB := env.seedPrincipal(t, "0.00")

	rec := env.do(t, http.MethodPost, "/webhooks", keyA, map[string]string{
		"url": "https://example.com/hooks", "event": "transaction.completed",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The other principal sees no webhooks.
	rec = env.do(t, http.MethodGet, "/webhooks", keyB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
