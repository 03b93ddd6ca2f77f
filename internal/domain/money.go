package domain

import (
	"github.com/shopspring/decimal"
)

// maxAmount is the largest representable monetary value (~999 trillion).
var maxAmount = decimal.New(999_999_999_999_999, 0)

// Money is a non-negative monetary amount with at most two decimal
// places. The zero value is 0.00 and is valid.
type Money struct {
	amount decimal.Decimal
}

// NewMoney validates amount and wraps it as Money.
func NewMoney(amount decimal.Decimal) (Money, error) {
	m := Money{amount: amount}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromString parses a decimal string such as "100.50".
func MoneyFromString(s string) (Money, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &InvalidAmountError{Reason: "invalid amount: " + s}
	}
	return NewMoney(amount)
}

// Validate checks the Money invariants: non-negative, scale <= 2,
// within the maximum.
func (m Money) Validate() error {
	if m.amount.IsNegative() {
		return &InvalidAmountError{Reason: "amount cannot be negative"}
	}
	if m.amount.Exponent() < -2 {
		return &InvalidAmountError{Reason: "amount cannot have more than 2 decimal places"}
	}
	if m.amount.GreaterThan(maxAmount) {
		return &InvalidAmountError{Reason: "amount exceeds maximum allowed value"}
	}
	return nil
}

// Amount returns the underlying decimal value.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Add returns m + other, failing if the result violates an invariant.
func (m Money) Add(other Money) (Money, error) {
	return NewMoney(m.amount.Add(other.amount))
}

// Subtract returns m - other, failing if the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	return NewMoney(m.amount.Sub(other.amount))
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// Equal reports value equality; 100 and 100.00 are equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}
