package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

// Principal is the authenticated identity carried through a request.
type Principal struct {
	AccountID uuid.UUID
}

// AuthService verifies raw API keys against stored hashes.
type AuthService struct {
	keys store.APIKeyStore
	log  *zap.Logger
}

func NewAuthService(keys store.APIKeyStore, log *zap.Logger) *AuthService {
	return &AuthService{keys: keys, log: log}
}

// HashAPIKey is the canonical key derivation: lowercase hex of
// SHA-256 over the raw secret. The raw key is never stored.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// Verify resolves rawKey to a Principal. The last-used timestamp is
// updated best-effort: the principal has already been proven valid,
// so telemetry failures are logged, not surfaced.
func (s *AuthService) Verify(ctx context.Context, rawKey string) (Principal, error) {
	key, err := s.keys.FindByHash(ctx, HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, store.ErrAPIKeyNotFound) {
			return Principal{}, domain.ErrInvalidAPIKey
		}
		return Principal{}, err
	}

	if err := s.keys.UpdateLastUsed(ctx, key.ID); err != nil {
		s.log.Warn("failed to update api key last_used",
			zap.String("api_key_id", key.ID.String()), zap.Error(err))
	}

	return Principal{AccountID: key.AccountID}, nil
}
