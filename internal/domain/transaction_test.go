package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestNewCredit(t *testing.T) {
	to := uuid.New()
	tx, err := NewCredit(to, mustMoney(t, "25.00"), strptr("key-1"))
	require.NoError(t, err)

	assert.Equal(t, TypeCredit, tx.Type)
	assert.Nil(t, tx.FromAccountID)
	require.NotNil(t, tx.ToAccountID)
	assert.Equal(t, to, *tx.ToAccountID)
	assert.Equal(t, "key-1", *tx.IdempotencyKey)
}

func TestNewDebit(t *testing.T) {
	from := uuid.New()
	tx, err := NewDebit(from, mustMoney(t, "25.00"), nil)
	require.NoError(t, err)

	assert.Equal(t, TypeDebit, tx.Type)
	require.NotNil(t, tx.FromAccountID)
	assert.Equal(t, from, *tx.FromAccountID)
	assert.Nil(t, tx.ToAccountID)
	assert.Nil(t, tx.IdempotencyKey)
}

func TestNewTransfer(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	tx, err := NewTransfer(from, to, mustMoney(t, "1.00"), nil)
	require.NoError(t, err)

	assert.Equal(t, TypeTransfer, tx.Type)
	assert.Equal(t, from, *tx.FromAccountID)
	assert.Equal(t, to, *tx.ToAccountID)
}

func TestNewTransferRejectsSelf(t *testing.T) {
	id := uuid.New()
	_, err := NewTransfer(id, id, mustMoney(t, "1.00"), nil)
	assert.ErrorIs(t, err, ErrSelfTransferNotAllowed)
}

func TestTransactionRejectsNonPositiveAmount(t *testing.T) {
	_, err := NewCredit(uuid.New(), Money{}, nil)
	require.Error(t, err)
	var invalid *InvalidAmountError
	assert.ErrorAs(t, err, &invalid)
}

func TestTransactionRejectsBadIdempotencyKey(t *testing.T) {
	for _, key := range []string{"", strings.Repeat("k", 256)} {
		_, err := NewDebit(uuid.New(), mustMoney(t, "1.00"), &key)
		require.Error(t, err, "key length %d", len(key))
		var invalid *InvalidIdempotencyKeyError
		assert.ErrorAs(t, err, &invalid)
	}
}

func TestParseTransactionType(t *testing.T) {
	for s, want := range map[string]TransactionType{
		"credit":   TypeCredit,
		"DEBIT":    TypeDebit,
		"Transfer": TypeTransfer,
	} {
		got, err := ParseTransactionType(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseTransactionType("refund")
	var invalid *InvalidTransactionTypeError
	assert.ErrorAs(t, err, &invalid)
}

func TestTransactionFromDBEnforcesShape(t *testing.T) {
	id := uuid.New()
	a, b := uuid.New(), uuid.New()
	amount := mustMoney(t, "5.00")
	now := time.Now().UTC()

	// Valid credit round-trips.
	tx, err := TransactionFromDB(id, TypeCredit, nil, &b, amount, nil, now)
	require.NoError(t, err)
	assert.Equal(t, TypeCredit, tx.Type)

	// Credit with a source is corrupt.
	_, err = TransactionFromDB(id, TypeCredit, &a, &b, amount, nil, now)
	assert.Error(t, err)

	// Debit with a destination is corrupt.
	_, err = TransactionFromDB(id, TypeDebit, &a, &b, amount, nil, now)
	assert.Error(t, err)

	// Transfer missing a side is corrupt.
	_, err = TransactionFromDB(id, TypeTransfer, &a, nil, amount, nil, now)
	assert.Error(t, err)

	// Self transfer is corrupt even from storage.
	_, err = TransactionFromDB(id, TypeTransfer, &a, &a, amount, nil, now)
	assert.ErrorIs(t, err, ErrSelfTransferNotAllowed)

	// Unknown type is corrupt.
	_, err = TransactionFromDB(id, TransactionType("refund"), &a, nil, amount, nil, now)
	assert.Error(t, err)
}
