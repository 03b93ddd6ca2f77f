package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dodopayments/payments-engine/internal/domain"
)

// PostgresAccounts implements AccountStore on a pgx pool.
type PostgresAccounts struct {
	db *pgxpool.Pool
}

func NewPostgresAccounts(db *pgxpool.Pool) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

const accountColumns = "id, business_name, balance, webhook_secret, created_at, updated_at, deleted_at"

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		id            uuid.UUID
		businessName  string
		balance       decimal.Decimal
		webhookSecret string
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     *time.Time
	)
	if err := row.Scan(&id, &businessName, &balance, &webhookSecret, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	return domain.AccountFromDB(id, businessName, balance, webhookSecret, createdAt, updatedAt, deletedAt)
}

func (s *PostgresAccounts) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO accounts (id, business_name, balance, webhook_secret, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+accountColumns,
		account.ID, account.BusinessName, account.Balance.Amount(), account.WebhookSecret,
		account.CreatedAt, account.UpdatedAt,
	)
	created, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return created, nil
}

func (s *PostgresAccounts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND deleted_at IS NULL`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *PostgresAccounts) UpdateBalance(ctx context.Context, id uuid.UUID, balance domain.Money) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		balance.Amount(), id)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PostgresAccounts) UpdateBusinessName(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET business_name = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		name, id)
	if err != nil {
		return fmt.Errorf("update business name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PostgresAccounts) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresAccounts) List(ctx context.Context, limit, offset int64) ([]*domain.Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE deleted_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *PostgresAccounts) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
