package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

const defaultAccountListLimit = 100

// AccountService owns the account lifecycle: creation, lookup,
// listing, and tombstoning.
type AccountService struct {
	accounts store.AccountStore
	webhooks *WebhookService
	log      *zap.Logger
}

// NewAccountService wires the service. webhooks may be nil.
func NewAccountService(accounts store.AccountStore, webhooks *WebhookService, log *zap.Logger) *AccountService {
	return &AccountService{accounts: accounts, webhooks: webhooks, log: log}
}

// Create opens an account with a zero balance and a fresh webhook
// secret, then fires the account.created event.
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (AccountResponse, error) {
	zero, err := domain.NewMoney(decimal.Zero)
	if err != nil {
		return AccountResponse{}, err
	}
	account, err := domain.NewAccount(req.BusinessName, zero)
	if err != nil {
		return AccountResponse{}, err
	}
	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return AccountResponse{}, err
	}

	response := NewAccountResponse(created)
	if s.webhooks != nil {
		s.webhooks.NotifyAsync(created.ID, domain.EventAccountCreated, response)
	}
	return response, nil
}

// Get returns an active (non-tombstoned) account by id.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (AccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return AccountResponse{}, err
	}
	return NewAccountResponse(account), nil
}

// List returns active accounts, newest first.
func (s *AccountService) List(ctx context.Context) ([]AccountResponse, error) {
	accounts, err := s.accounts.List(ctx, defaultAccountListLimit, 0)
	if err != nil {
		return nil, err
	}
	responses := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, NewAccountResponse(account))
	}
	return responses, nil
}

// UpdateBusinessName renames an account after domain validation.
func (s *AccountService) UpdateBusinessName(ctx context.Context, id uuid.UUID, name string) error {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := account.UpdateBusinessName(name); err != nil {
		return err
	}
	return s.accounts.UpdateBusinessName(ctx, id, account.BusinessName)
}

// Delete tombstones the account. Tombstoned accounts reject every
// subsequent lookup and mutation with not-found.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.accounts.SoftDelete(ctx, id)
}
