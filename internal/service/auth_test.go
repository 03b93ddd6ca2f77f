package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store/memory"
)

func TestHashAPIKey(t *testing.T) {
	// SHA-256("test") in lowercase hex.
	assert.Equal(t,
		"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		HashAPIKey("test"))
}

func TestVerify(t *testing.T) {
	db := memory.NewDB()
	svc := NewAuthService(db.APIKeys, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	rawKey := "dodo_secret"
	_, err := db.APIKeys.Create(context.Background(), domain.NewAPIKey(account.ID, HashAPIKey(rawKey)))
	require.NoError(t, err)

	principal, err := svc.Verify(context.Background(), rawKey)
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.AccountID)
}

func TestVerifyUpdatesLastUsed(t *testing.T) {
	db := memory.NewDB()
	svc := NewAuthService(db.APIKeys, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	rawKey := "dodo_secret"
	key, err := db.APIKeys.Create(context.Background(), domain.NewAPIKey(account.ID, HashAPIKey(rawKey)))
	require.NoError(t, err)
	assert.Nil(t, key.LastUsedAt)

	_, err = svc.Verify(context.Background(), rawKey)
	require.NoError(t, err)

	after, err := db.APIKeys.FindByHash(context.Background(), key.KeyHash)
	require.NoError(t, err)
	assert.NotNil(t, after.LastUsedAt)
}

func TestVerifyUnknownKey(t *testing.T) {
	db := memory.NewDB()
	svc := NewAuthService(db.APIKeys, zap.NewNop())

	_, err := svc.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}
