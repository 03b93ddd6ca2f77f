package store

import (
	"bytes"
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

// PostgresTransactions implements TransactionStore on a pgx pool. The
// Execute* methods run the mutation protocol: balances and the ledger
// row commit as one unit or roll back together.
type PostgresTransactions struct {
	db *pgxpool.Pool
}

func NewPostgresTransactions(db *pgxpool.Pool) *PostgresTransactions {
	return &PostgresTransactions{db: db}
}

const txColumns = "id, transaction_type, from_account_id, to_account_id, amount, idempotency_key, created_at"

const insertTxSQL = `INSERT INTO transactions (` + txColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 RETURNING ` + txColumns

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		id             uuid.UUID
		typeStr        string
		fromAccountID  *uuid.UUID
		toAccountID    *uuid.UUID
		amount         decimal.Decimal
		idempotencyKey *string
		createdAt      time.Time
	)
	if err := row.Scan(&id, &typeStr, &fromAccountID, &toAccountID, &amount, &idempotencyKey, &createdAt); err != nil {
		return nil, err
	}
	txType, err := domain.ParseTransactionType(typeStr)
	if err != nil {
		return nil, err
	}
	money, err := domain.NewMoney(amount)
	if err != nil {
		return nil, err
	}
	return domain.TransactionFromDB(id, txType, fromAccountID, toAccountID, money, idempotencyKey, createdAt)
}

func (s *PostgresTransactions) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	row := s.db.QueryRow(ctx, insertTxSQL,
		tx.ID, tx.Type.String(), tx.FromAccountID, tx.ToAccountID,
		tx.Amount.Amount(), tx.IdempotencyKey, tx.CreatedAt)
	created, err := scanTransaction(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdempotencyKey
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

func (s *PostgresTransactions) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

func (s *PostgresTransactions) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE idempotency_key = $1`, key)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction by key: %w", err)
	}
	return tx, nil
}

func (s *PostgresTransactions) IdempotencyKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE idempotency_key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("idempotency key exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresTransactions) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int64) ([]*domain.Transaction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE from_account_id = $1 OR to_account_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ExecuteCredit adds the amount to the destination account and appends
// the ledger row in one database transaction.
func (s *PostgresTransactions) ExecuteCredit(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.ToAccountID == nil {
		return nil, &ConstraintViolationError{Reason: "credit transaction must have to_account_id"}
	}

	dbTx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin credit tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	tag, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = now()
		 WHERE id = $2 AND deleted_at IS NULL`,
		tx.Amount.Amount(), *tx.ToAccountID)
	if err != nil {
		return nil, fmt.Errorf("credit balance update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAccountNotFound
	}

	created, err := insertLedgerRow(ctx, dbTx, tx)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit credit: %w", err)
	}
	return created, nil
}

// ExecuteDebit locks the source row, checks funds against the locked
// balance, subtracts the amount, and appends the ledger row.
func (s *PostgresTransactions) ExecuteDebit(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.FromAccountID == nil {
		return nil, &ConstraintViolationError{Reason: "debit transaction must have from_account_id"}
	}

	dbTx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin debit tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	var balance decimal.Decimal
	err = dbTx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		*tx.FromAccountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("debit lock acquisition: %w", err)
	}

	if balance.LessThan(tx.Amount.Amount()) {
		return nil, insufficientBalance(balance, tx.Amount)
	}

	tag, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = now() WHERE id = $2`,
		tx.Amount.Amount(), *tx.FromAccountID)
	if err != nil {
		return nil, fmt.Errorf("debit balance update: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, &ConstraintViolationError{Reason: "debit updated no rows"}
	}

	created, err := insertLedgerRow(ctx, dbTx, tx)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit debit: %w", err)
	}
	return created, nil
}

// ExecuteTransfer moves the amount between two accounts. Row locks are
// always taken in byte order of the account ids, so two concurrent
// opposite-direction transfers serialize instead of deadlocking.
func (s *PostgresTransactions) ExecuteTransfer(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.FromAccountID == nil || tx.ToAccountID == nil {
		return nil, &ConstraintViolationError{Reason: "transfer must have both account ids"}
	}
	from, to := *tx.FromAccountID, *tx.ToAccountID
	if from == to {
		return nil, domain.ErrSelfTransferNotAllowed
	}

	dbTx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transfer tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	first, second := lockOrder(from, to)

	var firstBalance, secondBalance decimal.Decimal
	for _, step := range []struct {
		id  uuid.UUID
		dst *decimal.Decimal
	}{{first, &firstBalance}, {second, &secondBalance}} {
		err = dbTx.QueryRow(ctx,
			`SELECT balance FROM accounts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			step.id).Scan(step.dst)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("transfer lock acquisition: %w", err)
		}
	}

	fromBalance := firstBalance
	if from != first {
		fromBalance = secondBalance
	}
	if fromBalance.LessThan(tx.Amount.Amount()) {
		return nil, insufficientBalance(fromBalance, tx.Amount)
	}

	tag, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = now() WHERE id = $2`,
		tx.Amount.Amount(), from)
	if err != nil {
		return nil, fmt.Errorf("transfer debit update: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, &ConstraintViolationError{Reason: "transfer debit updated no rows"}
	}

	tag, err = dbTx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE id = $2`,
		tx.Amount.Amount(), to)
	if err != nil {
		return nil, fmt.Errorf("transfer credit update: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, &ConstraintViolationError{Reason: "transfer credit updated no rows"}
	}

	created, err := insertLedgerRow(ctx, dbTx, tx)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}
	return created, nil
}

// lockOrder totally orders two account ids by their byte
// representation. Every transfer acquires row locks in this order.
func lockOrder(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

func insertLedgerRow(ctx context.Context, dbTx pgx.Tx, tx *domain.Transaction) (*domain.Transaction, error) {
	row := dbTx.QueryRow(ctx, insertTxSQL,
		tx.ID, tx.Type.String(), tx.FromAccountID, tx.ToAccountID,
		tx.Amount.Amount(), tx.IdempotencyKey, tx.CreatedAt)
	created, err := scanTransaction(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdempotencyKey
		}
		return nil, fmt.Errorf("insert ledger row: %w", err)
	}
	return created, nil
}

func insufficientBalance(available decimal.Decimal, required domain.Money) error {
	availableMoney, err := domain.NewMoney(available)
	if err != nil {
		return &ConstraintViolationError{Reason: "stored balance violates money invariants: " + err.Error()}
	}
	return &domain.InsufficientBalanceError{Available: availableMoney, Required: required}
}
