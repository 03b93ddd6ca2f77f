package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid amount", &domain.InvalidAmountError{Reason: "negative"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid account state", &domain.InvalidAccountStateError{Reason: "empty name"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid idempotency key", &domain.InvalidIdempotencyKeyError{Reason: "too long"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid webhook url", &domain.InvalidWebhookURLError{URL: "ftp://x"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid webhook event", &domain.InvalidWebhookEventError{Value: "x"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"self transfer", domain.ErrSelfTransferNotAllowed, http.StatusBadRequest, "BAD_REQUEST"},
		{"account not found", store.ErrAccountNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"transaction not found", store.ErrTransactionNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"webhook not found", store.ErrWebhookNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"duplicate idempotency key", store.ErrDuplicateIdempotencyKey, http.StatusConflict, "CONFLICT"},
		{"invalid api key", domain.ErrInvalidAPIKey, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"constraint violation", &store.ConstraintViolationError{Reason: "broken"}, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestWriteErrorInsufficientBalanceBody(t *testing.T) {
	available, err := domain.MoneyFromString("3.00")
	require.NoError(t, err)
	required, err := domain.MoneyFromString("7.50")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	writeError(rec, &domain.InsufficientBalanceError{Available: available, Required: required})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body insufficientBalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INSUFFICIENT_BALANCE", body.Code)
	assert.Equal(t, "3.00", body.Available)
	assert.Equal(t, "7.50", body.Required)
}

func TestWriteErrorNeverLeaksInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
