package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// TransactionService orchestrates monetary mutations: it builds the
// domain transaction, invokes the atomic store operation, replays
// stored responses on idempotency-key hits, and enqueues webhook
// notifications for the originating account.
type TransactionService struct {
	transactions store.TransactionStore
	webhooks     *WebhookService
	log          *zap.Logger
}

// NewTransactionService wires the service. webhooks may be nil, in
// which case mutations complete without notifications.
func NewTransactionService(transactions store.TransactionStore, webhooks *WebhookService, log *zap.Logger) *TransactionService {
	return &TransactionService{transactions: transactions, webhooks: webhooks, log: log}
}

// Deposit credits req.Amount to the account.
func (s *TransactionService) Deposit(ctx context.Context, req DepositRequest) (TransactionResponse, error) {
	money, err := domain.NewMoney(req.Amount)
	if err != nil {
		return TransactionResponse{}, err
	}
	tx, err := domain.NewCredit(req.AccountID, money, req.IdempotencyKey)
	if err != nil {
		return TransactionResponse{}, err
	}
	return s.execute(ctx, tx, s.transactions.ExecuteCredit, req.AccountID)
}

// Withdraw debits req.Amount from the account.
func (s *TransactionService) Withdraw(ctx context.Context, req WithdrawRequest) (TransactionResponse, error) {
	money, err := domain.NewMoney(req.Amount)
	if err != nil {
		return TransactionResponse{}, err
	}
	tx, err := domain.NewDebit(req.AccountID, money, req.IdempotencyKey)
	if err != nil {
		return TransactionResponse{}, err
	}
	return s.execute(ctx, tx, s.transactions.ExecuteDebit, req.AccountID)
}

// Transfer moves req.Amount between the two accounts atomically.
func (s *TransactionService) Transfer(ctx context.Context, req TransferRequest) (TransactionResponse, error) {
	money, err := domain.NewMoney(req.Amount)
	if err != nil {
		return TransactionResponse{}, err
	}
	tx, err := domain.NewTransfer(req.FromAccountID, req.ToAccountID, money, req.IdempotencyKey)
	if err != nil {
		return TransactionResponse{}, err
	}
	return s.execute(ctx, tx, s.transactions.ExecuteTransfer, req.FromAccountID)
}

// execute runs the atomic operation and implements the replay
// contract: a duplicate-key failure on a request that carried a key
// returns the stored prior transaction verbatim.
func (s *TransactionService) execute(
	ctx context.Context,
	tx *domain.Transaction,
	op func(context.Context, *domain.Transaction) (*domain.Transaction, error),
	notifyAccountID uuid.UUID,
) (TransactionResponse, error) {
	created, err := op(ctx, tx)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateIdempotencyKey) && tx.IdempotencyKey != nil {
			s.log.Info("idempotency replay",
				zap.String("idempotency_key", *tx.IdempotencyKey),
				zap.String("transaction_type", tx.Type.String()))
			prior, findErr := s.transactions.FindByIdempotencyKey(ctx, *tx.IdempotencyKey)
			if findErr != nil {
				return TransactionResponse{}, findErr
			}
			return NewTransactionResponse(prior), nil
		}
		return TransactionResponse{}, err
	}

	response := NewTransactionResponse(created)
	if s.webhooks != nil {
		s.webhooks.NotifyAsync(notifyAccountID, domain.EventTransactionCompleted, response)
	}
	return response, nil
}

// GetHistory lists the ledger entries touching accountID, newest
// first. Limit defaults to 10 and is capped at 100.
func (s *TransactionService) GetHistory(ctx context.Context, accountID uuid.UUID, limit, offset int64) ([]TransactionResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := s.transactions.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	responses := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, NewTransactionResponse(tx))
	}
	return responses, nil
}
