package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dodopayments/payments-engine/internal/domain"
)

// Request and response shapes of the HTTP surface. Amounts travel as
// decimals; uuids render in canonical form.

type CreateAccountRequest struct {
	BusinessName string `json:"business_name"`
}

type AccountResponse struct {
	ID           uuid.UUID       `json:"id"`
	BusinessName string          `json:"business_name"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:           account.ID,
		BusinessName: account.BusinessName,
		Balance:      account.Balance.Amount(),
		CreatedAt:    account.CreatedAt,
	}
}

type DepositRequest struct {
	AccountID      uuid.UUID       `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
}

type WithdrawRequest struct {
	AccountID      uuid.UUID       `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
}

type TransferRequest struct {
	FromAccountID  uuid.UUID       `json:"from_account_id"`
	ToAccountID    uuid.UUID       `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
}

// TransactionResponse is also the webhook delivery payload, so its
// field set and encoding are wire contract.
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	TransactionType string          `json:"transaction_type"`
	FromAccountID   *uuid.UUID      `json:"from_account_id,omitempty"`
	ToAccountID     *uuid.UUID      `json:"to_account_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	IdempotencyKey  *string         `json:"idempotency_key,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func NewTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		TransactionType: tx.Type.String(),
		FromAccountID:   tx.FromAccountID,
		ToAccountID:     tx.ToAccountID,
		Amount:          tx.Amount.Amount(),
		IdempotencyKey:  tx.IdempotencyKey,
		CreatedAt:       tx.CreatedAt,
	}
}

type CreateWebhookRequest struct {
	URL   string `json:"url"`
	Event string `json:"event"`
}

type WebhookResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Event     string    `json:"event"`
	AccountID uuid.UUID `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewWebhookResponse(webhook *domain.Webhook) WebhookResponse {
	return WebhookResponse{
		ID:        webhook.ID,
		URL:       webhook.URL,
		Event:     webhook.Event.String(),
		AccountID: webhook.AccountID,
		CreatedAt: webhook.CreatedAt,
	}
}
