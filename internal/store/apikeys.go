package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopayments/payments-engine/internal/domain"
)

// PostgresAPIKeys implements APIKeyStore on a pgx pool.
type PostgresAPIKeys struct {
	db *pgxpool.Pool
}

func NewPostgresAPIKeys(db *pgxpool.Pool) *PostgresAPIKeys {
	return &PostgresAPIKeys{db: db}
}

const apiKeyColumns = "id, account_id, key_hash, rate_limit_per_hour, created_at, last_used_at"

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	var (
		id               uuid.UUID
		accountID        uuid.UUID
		keyHash          string
		rateLimitPerHour int
		createdAt        time.Time
		lastUsedAt       *time.Time
	)
	if err := row.Scan(&id, &accountID, &keyHash, &rateLimitPerHour, &createdAt, &lastUsedAt); err != nil {
		return nil, err
	}
	return &domain.APIKey{
		ID:               id,
		AccountID:        accountID,
		KeyHash:          keyHash,
		RateLimitPerHour: rateLimitPerHour,
		CreatedAt:        createdAt,
		LastUsedAt:       lastUsedAt,
	}, nil
}

func (s *PostgresAPIKeys) Create(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, account_id, key_hash, rate_limit_per_hour, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+apiKeyColumns,
		key.ID, key.AccountID, key.KeyHash, key.RateLimitPerHour, key.CreatedAt)
	created, err := scanAPIKey(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConstraintViolationError{Reason: "api key hash already exists"}
		}
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return created, nil
}

func (s *PostgresAPIKeys) FindByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash)
	key, err := scanAPIKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("find api key: %w", err)
	}
	return key, nil
}

func (s *PostgresAPIKeys) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

func (s *PostgresAPIKeys) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

func (s *PostgresAPIKeys) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM api_keys WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("api key exists: %w", err)
	}
	return exists, nil
}
