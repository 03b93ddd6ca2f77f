// Package store defines the persistence contracts of the payments
// engine and their PostgreSQL implementations. The Execute* operations
// on TransactionStore are the atomic heart of the engine: a committed
// execution makes the balance mutation(s) and the ledger insert
// visible together, or not at all.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dodopayments/payments-engine/internal/domain"
)

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrWebhookNotFound         = errors.New("webhook not found")
	ErrAPIKeyNotFound          = errors.New("api key not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already exists")
)

// ConstraintViolationError reports a storage-level integrity failure
// that is not one of the named sentinels.
type ConstraintViolationError struct {
	Reason string
}

func (e *ConstraintViolationError) Error() string {
	return "constraint violation: " + e.Reason
}

// AccountStore persists accounts. Lookups and mutations ignore
// tombstoned rows.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance domain.Money) error
	UpdateBusinessName(ctx context.Context, id uuid.UUID, name string) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int64) ([]*domain.Account, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TransactionStore persists the append-only ledger. Create inserts a
// bare ledger row without touching balances; it exists for replay
// inspection and tests. The Execute* operations run the full atomic
// mutation protocol in one database transaction.
type TransactionStore interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	IdempotencyKeyExists(ctx context.Context, key string) (bool, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int64) ([]*domain.Transaction, error)

	ExecuteCredit(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	ExecuteDebit(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	ExecuteTransfer(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
}

// WebhookStore persists webhook registrations.
type WebhookStore interface {
	Create(ctx context.Context, webhook *domain.Webhook) (*domain.Webhook, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Webhook, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// APIKeyStore persists API key records.
type APIKeyStore interface {
	Create(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error)
	FindByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
