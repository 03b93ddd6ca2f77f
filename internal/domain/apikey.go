package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRateLimitPerHour applies to keys created without an explicit
// quota.
const DefaultRateLimitPerHour = 1000

// APIKey authenticates a caller acting on behalf of an account. Only
// the SHA-256 hex of the raw secret is ever stored.
type APIKey struct {
	ID               uuid.UUID
	AccountID        uuid.UUID
	KeyHash          string
	RateLimitPerHour int
	CreatedAt        time.Time
	LastUsedAt       *time.Time
}

// NewAPIKey creates a key record for accountID from an already-hashed
// secret.
func NewAPIKey(accountID uuid.UUID, keyHash string) *APIKey {
	return &APIKey{
		ID:               uuid.New(),
		AccountID:        accountID,
		KeyHash:          keyHash,
		RateLimitPerHour: DefaultRateLimitPerHour,
		CreatedAt:        time.Now().UTC(),
	}
}
