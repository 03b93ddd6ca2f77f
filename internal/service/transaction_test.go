package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store/memory"
)

func seedAccount(t *testing.T, db *memory.DB, balance string) *domain.Account {
	t.Helper()
	money, err := domain.MoneyFromString(balance)
	require.NoError(t, err)
	account, err := domain.NewAccount("Test Business", money)
	require.NoError(t, err)
	created, err := db.Accounts.Create(context.Background(), account)
	require.NoError(t, err)
	return created
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestDeposit(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	resp, err := svc.Deposit(context.Background(), DepositRequest{
		AccountID: account.ID,
		Amount:    dec(t, "100.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, "credit", resp.TransactionType)
	assert.Nil(t, resp.FromAccountID)
	require.NotNil(t, resp.ToAccountID)
	assert.Equal(t, account.ID, *resp.ToAccountID)
	assert.True(t, resp.Amount.Equal(dec(t, "100.50")))

	after, err := db.Accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.50", after.Balance.String())
}

func TestDepositRejectsInvalidAmount(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	for _, amount := range []string{"0", "-5.00", "1.999"} {
		_, err := svc.Deposit(context.Background(), DepositRequest{
			AccountID: account.ID,
			Amount:    dec(t, amount),
		})
		require.Error(t, err, "amount %s", amount)
		var invalid *domain.InvalidAmountError
		assert.ErrorAs(t, err, &invalid)
	}
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	account := seedAccount(t, db, "50.00")

	_, err := svc.Withdraw(context.Background(), WithdrawRequest{
		AccountID: account.ID,
		Amount:    dec(t, "50.01"),
	})
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "50.00", insufficient.Available.String())
	assert.Equal(t, "50.01", insufficient.Required.String())
}

func TestTransfer(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	from := seedAccount(t, db, "100.00")
	to := seedAccount(t, db, "0.00")

	resp, err := svc.Transfer(context.Background(), TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        dec(t, "40.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "transfer", resp.TransactionType)

	ctx := context.Background()
	fromAfter, err := db.Accounts.FindByID(ctx, from.ID)
	require.NoError(t, err)
	toAfter, err := db.Accounts.FindByID(ctx, to.ID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", fromAfter.Balance.String())
	assert.Equal(t, "40.00", toAfter.Balance.String())
}

func TestTransferRejectsSelf(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	account := seedAccount(t, db, "100.00")

	_, err := svc.Transfer(context.Background(), TransferRequest{
		FromAccountID: account.ID,
		ToAccountID:   account.ID,
		Amount:        dec(t, "1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrSelfTransferNotAllowed)
}

func TestIdempotencyReplayReturnsOriginal(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	key := "deposit-1"
	first, err := svc.Deposit(context.Background(), DepositRequest{
		AccountID:      account.ID,
		Amount:         dec(t, "25.00"),
		IdempotencyKey: &key,
	})
	require.NoError(t, err)

	// Retry with the same key: same transaction back, no second credit.
	second, err := svc.Deposit(context.Background(), DepositRequest{
		AccountID:      account.ID,
		Amount:         dec(t, "25.00"),
		IdempotencyKey: &key,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	after, err := db.Accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", after.Balance.String())
}

func TestDepositFiresWebhook(t *testing.T) {
	db := memory.NewDB()
	dispatcher := &fakeDispatcher{}
	webhooks := NewWebhookService(db.Webhooks, db.Accounts, dispatcher, zap.NewNop())
	svc := NewTransactionService(db.Transactions, webhooks, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	_, err := webhooks.Register(context.Background(), account.ID, CreateWebhookRequest{
		URL:   "https://example.com/hooks",
		Event: "transaction.completed",
	})
	require.NoError(t, err)

	_, err = svc.Deposit(context.Background(), DepositRequest{
		AccountID: account.ID,
		Amount:    dec(t, "10.00"),
	})
	require.NoError(t, err)

	require.True(t, webhooks.Close(5*time.Second))
	calls := dispatcher.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "https://example.com/hooks", calls[0].url)
	assert.Equal(t, account.WebhookSecret, calls[0].secret)
	assert.Contains(t, string(calls[0].payload), `"transaction_type":"credit"`)
}

func TestGetHistoryLimits(t *testing.T) {
	db := memory.NewDB()
	svc := NewTransactionService(db.Transactions, nil, zap.NewNop())
	account := seedAccount(t, db, "0.00")

	for i := 0; i < 15; i++ {
		_, err := svc.Deposit(context.Background(), DepositRequest{
			AccountID: account.ID,
			Amount:    dec(t, "1.00"),
		})
		require.NoError(t, err)
	}

	// Zero limit defaults to 10.
	history, err := svc.GetHistory(context.Background(), account.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, history, 10)

	// Oversized limit is capped at 100.
	history, err = svc.GetHistory(context.Background(), account.ID, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, history, 15)

	// Offset pages through.
	history, err = svc.GetHistory(context.Background(), account.ID, 10, 10)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}
