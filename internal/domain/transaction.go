package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType tags a ledger entry as credit, debit, or transfer.
type TransactionType string

const (
	TypeCredit   TransactionType = "credit"
	TypeDebit    TransactionType = "debit"
	TypeTransfer TransactionType = "transfer"
)

// ParseTransactionType converts a storage string to a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(s) {
	case "credit":
		return TypeCredit, nil
	case "debit":
		return TypeDebit, nil
	case "transfer":
		return TypeTransfer, nil
	default:
		return "", &InvalidTransactionTypeError{Value: s}
	}
}

func (t TransactionType) String() string {
	return string(t)
}

const maxIdempotencyKeyLen = 255

// Transaction is an append-only ledger entry. It is immutable once
// committed: credits carry only a destination, debits only a source,
// transfers both.
type Transaction struct {
	ID             uuid.UUID
	Type           TransactionType
	FromAccountID  *uuid.UUID
	ToAccountID    *uuid.UUID
	Amount         Money
	IdempotencyKey *string
	CreatedAt      time.Time
}

// NewCredit builds a credit entry adding amount to toAccountID.
func NewCredit(toAccountID uuid.UUID, amount Money, idempotencyKey *string) (*Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}
	return &Transaction{
		ID:             uuid.New(),
		Type:           TypeCredit,
		ToAccountID:    &toAccountID,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// NewDebit builds a debit entry removing amount from fromAccountID.
func NewDebit(fromAccountID uuid.UUID, amount Money, idempotencyKey *string) (*Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}
	return &Transaction{
		ID:             uuid.New(),
		Type:           TypeDebit,
		FromAccountID:  &fromAccountID,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// NewTransfer builds a transfer entry moving amount between two
// distinct accounts.
func NewTransfer(fromAccountID, toAccountID uuid.UUID, amount Money, idempotencyKey *string) (*Transaction, error) {
	if fromAccountID == toAccountID {
		return nil, ErrSelfTransferNotAllowed
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}
	return &Transaction{
		ID:             uuid.New(),
		Type:           TypeTransfer,
		FromAccountID:  &fromAccountID,
		ToAccountID:    &toAccountID,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// TransactionFromDB reconstructs a ledger entry, re-enforcing every
// construction invariant. A row that violates them is a hard error,
// never silently coerced.
func TransactionFromDB(id uuid.UUID, txType TransactionType, fromAccountID, toAccountID *uuid.UUID, amount Money, idempotencyKey *string, createdAt time.Time) (*Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}

	switch txType {
	case TypeCredit:
		if fromAccountID != nil || toAccountID == nil {
			return nil, &InvalidTransactionTypeError{Value: "credit must have only to_account_id"}
		}
	case TypeDebit:
		if fromAccountID == nil || toAccountID != nil {
			return nil, &InvalidTransactionTypeError{Value: "debit must have only from_account_id"}
		}
	case TypeTransfer:
		if fromAccountID == nil || toAccountID == nil {
			return nil, &InvalidTransactionTypeError{Value: "transfer must have both account ids"}
		}
		if *fromAccountID == *toAccountID {
			return nil, ErrSelfTransferNotAllowed
		}
	default:
		return nil, &InvalidTransactionTypeError{Value: string(txType)}
	}

	return &Transaction{
		ID:             id,
		Type:           txType,
		FromAccountID:  fromAccountID,
		ToAccountID:    toAccountID,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      createdAt,
	}, nil
}

func validateAmount(amount Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return &InvalidAmountError{Reason: "transaction amount must be positive"}
	}
	return nil
}

func validateIdempotencyKey(key *string) error {
	if key == nil {
		return nil
	}
	if *key == "" {
		return &InvalidIdempotencyKeyError{Reason: "idempotency key cannot be empty"}
	}
	if len(*key) > maxIdempotencyKeyLen {
		return &InvalidIdempotencyKeyError{Reason: "idempotency key cannot exceed 255 characters"}
	}
	return nil
}
