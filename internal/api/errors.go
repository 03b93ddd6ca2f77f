package api

import (
	"errors"
	"net/http"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

// insufficientBalanceResponse extends the error body with the figures
// the caller needs to correct the request.
type insufficientBalanceResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available string `json:"available"`
	Required  string `json:"required"`
}

// writeError is the single translation from the layered error taxonomy
// to the HTTP surface. Every error kind the lower layers can produce
// has an explicit arm here; anything unrecognized is a 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalidAmount    *domain.InvalidAmountError
		invalidState     *domain.InvalidAccountStateError
		invalidType      *domain.InvalidTransactionTypeError
		invalidKey       *domain.InvalidIdempotencyKeyError
		invalidURL       *domain.InvalidWebhookURLError
		invalidEvent     *domain.InvalidWebhookEventError
		insufficient     *domain.InsufficientBalanceError
		constraintFailed *store.ConstraintViolationError
	)

	switch {
	case errors.As(err, &insufficient):
		respondJSON(w, http.StatusBadRequest, insufficientBalanceResponse{
			Error:     insufficient.Error(),
			Code:      "INSUFFICIENT_BALANCE",
			Available: insufficient.Available.String(),
			Required:  insufficient.Required.String(),
		})
	case errors.As(err, &invalidAmount),
		errors.As(err, &invalidState),
		errors.As(err, &invalidType),
		errors.As(err, &invalidKey),
		errors.As(err, &invalidURL),
		errors.As(err, &invalidEvent),
		errors.Is(err, domain.ErrSelfTransferNotAllowed):
		respondError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrTransactionNotFound),
		errors.Is(err, store.ErrWebhookNotFound):
		respondError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, store.ErrDuplicateIdempotencyKey):
		respondError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, domain.ErrInvalidAPIKey), errors.Is(err, store.ErrAPIKeyNotFound):
		respondError(w, http.StatusUnauthorized, "Invalid API key", "UNAUTHORIZED")
	case errors.As(err, &constraintFailed):
		respondError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
