package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for rule violations that carry no extra data.
var (
	ErrSelfTransferNotAllowed = errors.New("self transfer not allowed")
	ErrInvalidAPIKey          = errors.New("invalid API key")
)

// InvalidAmountError reports a Money invariant violation.
type InvalidAmountError struct {
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return "invalid amount: " + e.Reason
}

// InvalidAccountStateError reports an Account invariant violation,
// such as an empty or oversized business name.
type InvalidAccountStateError struct {
	Reason string
}

func (e *InvalidAccountStateError) Error() string {
	return "invalid account state: " + e.Reason
}

// InvalidTransactionTypeError reports an unknown transaction type
// string, typically on reconstruction from storage.
type InvalidTransactionTypeError struct {
	Value string
}

func (e *InvalidTransactionTypeError) Error() string {
	return "invalid transaction type: " + e.Value
}

// InvalidIdempotencyKeyError reports an empty or oversized
// idempotency key.
type InvalidIdempotencyKeyError struct {
	Reason string
}

func (e *InvalidIdempotencyKeyError) Error() string {
	return "invalid idempotency key: " + e.Reason
}

// InvalidWebhookURLError reports a webhook URL that is not http(s).
type InvalidWebhookURLError struct {
	URL string
}

func (e *InvalidWebhookURLError) Error() string {
	return "invalid webhook url: " + e.URL
}

// InvalidWebhookEventError reports an unknown webhook event string.
type InvalidWebhookEventError struct {
	Value string
}

func (e *InvalidWebhookEventError) Error() string {
	return "invalid webhook event: " + e.Value
}

// InsufficientBalanceError reports a debit or transfer that would
// drive the source account negative.
type InsufficientBalanceError struct {
	Available Money
	Required  Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, required %s", e.Available, e.Required)
}
