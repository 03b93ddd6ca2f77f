package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopayments/payments-engine/internal/domain"
)

// PostgresWebhooks implements WebhookStore on a pgx pool.
type PostgresWebhooks struct {
	db *pgxpool.Pool
}

func NewPostgresWebhooks(db *pgxpool.Pool) *PostgresWebhooks {
	return &PostgresWebhooks{db: db}
}

const webhookColumns = "id, account_id, url, event, created_at"

func scanWebhook(row pgx.Row) (*domain.Webhook, error) {
	var (
		id        uuid.UUID
		accountID uuid.UUID
		url       string
		eventStr  string
		createdAt time.Time
	)
	if err := row.Scan(&id, &accountID, &url, &eventStr, &createdAt); err != nil {
		return nil, err
	}
	event, err := domain.ParseWebhookEvent(eventStr)
	if err != nil {
		return nil, err
	}
	return &domain.Webhook{
		ID:        id,
		AccountID: accountID,
		URL:       url,
		Event:     event,
		CreatedAt: createdAt,
	}, nil
}

func (s *PostgresWebhooks) Create(ctx context.Context, webhook *domain.Webhook) (*domain.Webhook, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO webhooks (id, account_id, url, event, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING `+webhookColumns,
		webhook.ID, webhook.AccountID, webhook.URL, webhook.Event.String(), webhook.CreatedAt)
	created, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("insert webhook: %w", err)
	}
	return created, nil
}

func (s *PostgresWebhooks) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Webhook, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE account_id = $1 ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*domain.Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}
	return webhooks, rows.Err()
}

func (s *PostgresWebhooks) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWebhookNotFound
	}
	return nil
}
