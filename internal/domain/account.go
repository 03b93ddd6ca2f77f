package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxBusinessNameLen = 255

// Account is a business account holding a balance. It is the ownership
// root for transactions, webhooks, and API keys. Accounts are never
// physically deleted; DeletedAt marks the tombstone.
type Account struct {
	ID            uuid.UUID
	BusinessName  string
	Balance       Money
	WebhookSecret string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// NewAccount creates an account with a fresh id and webhook secret.
func NewAccount(businessName string, initialBalance Money) (*Account, error) {
	if err := validateBusinessName(businessName); err != nil {
		return nil, err
	}
	if err := initialBalance.Validate(); err != nil {
		return nil, err
	}

	secret, err := generateWebhookSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Account{
		ID:            uuid.New(),
		BusinessName:  businessName,
		Balance:       initialBalance,
		WebhookSecret: secret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AccountFromDB reconstructs an account from a storage row, re-checking
// the Money invariants.
func AccountFromDB(id uuid.UUID, businessName string, balance decimal.Decimal, webhookSecret string, createdAt, updatedAt time.Time, deletedAt *time.Time) (*Account, error) {
	money, err := NewMoney(balance)
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:            id,
		BusinessName:  businessName,
		Balance:       money,
		WebhookSecret: webhookSecret,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
	}, nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts amount from the balance, failing closed when funds
// are insufficient.
func (a *Account) Debit(amount Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if !a.HasSufficientBalance(amount) {
		return &InsufficientBalanceError{Available: a.Balance, Required: amount}
	}
	balance, err := a.Balance.Subtract(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Account) HasSufficientBalance(amount Money) bool {
	return !a.Balance.LessThan(amount)
}

// UpdateBusinessName replaces the business name after validation.
func (a *Account) UpdateBusinessName(name string) error {
	if err := validateBusinessName(name); err != nil {
		return err
	}
	a.BusinessName = name
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Deleted reports whether the account is tombstoned.
func (a *Account) Deleted() bool {
	return a.DeletedAt != nil
}

func validateBusinessName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &InvalidAccountStateError{Reason: "business name cannot be empty"}
	}
	if len(trimmed) > maxBusinessNameLen {
		return &InvalidAccountStateError{Reason: "business name cannot exceed 255 characters"}
	}
	return nil
}

func generateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
