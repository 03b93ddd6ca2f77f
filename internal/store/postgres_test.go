package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodopayments/payments-engine/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("not a pg error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestLockOrderIsTotal(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	first, second := lockOrder(a, b)
	assert.Equal(t, a, first)
	assert.Equal(t, b, second)

	// Same pair, either argument order, same lock order.
	first, second = lockOrder(b, a)
	assert.Equal(t, a, first)
	assert.Equal(t, b, second)
}

func TestLockOrderRandomPairsAgree(t *testing.T) {
	for i := 0; i < 100; i++ {
		a, b := uuid.New(), uuid.New()
		f1, s1 := lockOrder(a, b)
		f2, s2 := lockOrder(b, a)
		assert.Equal(t, f1, f2)
		assert.Equal(t, s1, s2)
	}
}

func TestInsufficientBalanceError(t *testing.T) {
	err := insufficientBalance(decimal.NewFromFloat(5.25), mustMoney(t, "10.00"))
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "5.25", insufficient.Available.String())
	assert.Equal(t, "10.00", insufficient.Required.String())
}

func TestInsufficientBalanceCorruptStoredValue(t *testing.T) {
	// A negative stored balance can never satisfy the money invariants;
	// it is surfaced as a constraint violation, not an insufficiency.
	err := insufficientBalance(decimal.NewFromInt(-1), mustMoney(t, "10.00"))
	var constraint *ConstraintViolationError
	assert.ErrorAs(t, err, &constraint)
}

func mustMoney(t *testing.T, s string) domain.Money {
	t.Helper()
	m, err := domain.MoneyFromString(s)
	require.NoError(t, err)
	return m
}
