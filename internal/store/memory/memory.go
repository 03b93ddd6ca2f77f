// Package memory provides thread-safe in-memory implementations of
// the store contracts. They honor the same atomicity and idempotency
// semantics as the Postgres stores and substitute for them in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dodopayments/payments-engine/internal/domain"
	"github.com/dodopayments/payments-engine/internal/store"
)

// db is the shared backing state. All stores created from one DB hold
// the same mutex, which makes the Execute* operations trivially atomic.
type db struct {
	mu              sync.Mutex
	accounts        map[uuid.UUID]*domain.Account
	transactions    map[uuid.UUID]*domain.Transaction
	txOrder         []uuid.UUID
	idempotencyKeys map[string]uuid.UUID
	webhooks        map[uuid.UUID]*domain.Webhook
	apiKeys         map[uuid.UUID]*domain.APIKey
}

// DB bundles in-memory implementations of every store contract over a
// single shared state.
type DB struct {
	Accounts     *Accounts
	Transactions *Transactions
	Webhooks     *Webhooks
	APIKeys      *APIKeys
}

func NewDB() *DB {
	state := &db{
		accounts:        make(map[uuid.UUID]*domain.Account),
		transactions:    make(map[uuid.UUID]*domain.Transaction),
		idempotencyKeys: make(map[string]uuid.UUID),
		webhooks:        make(map[uuid.UUID]*domain.Webhook),
		apiKeys:         make(map[uuid.UUID]*domain.APIKey),
	}
	return &DB{
		Accounts:     &Accounts{db: state},
		Transactions: &Transactions{db: state},
		Webhooks:     &Webhooks{db: state},
		APIKeys:      &APIKeys{db: state},
	}
}

var (
	_ store.AccountStore     = (*Accounts)(nil)
	_ store.TransactionStore = (*Transactions)(nil)
	_ store.WebhookStore     = (*Webhooks)(nil)
	_ store.APIKeyStore      = (*APIKeys)(nil)
)

func cloneAccount(a *domain.Account) *domain.Account {
	clone := *a
	return &clone
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	clone := *t
	return &clone
}

// activeAccount returns the live (non-tombstoned) account or nil.
// Caller must hold the lock.
func (d *db) activeAccount(id uuid.UUID) *domain.Account {
	account, ok := d.accounts[id]
	if !ok || account.Deleted() {
		return nil
	}
	return account
}

// appendLedger enforces idempotency-key uniqueness and records the
// transaction. Caller must hold the lock.
func (d *db) appendLedger(tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.IdempotencyKey != nil {
		if _, exists := d.idempotencyKeys[*tx.IdempotencyKey]; exists {
			return nil, store.ErrDuplicateIdempotencyKey
		}
		d.idempotencyKeys[*tx.IdempotencyKey] = tx.ID
	}
	stored := cloneTransaction(tx)
	d.transactions[tx.ID] = stored
	d.txOrder = append(d.txOrder, tx.ID)
	return cloneTransaction(stored), nil
}

func paginate[T any](items []T, limit, offset int64) []T {
	if offset >= int64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

// Accounts implements store.AccountStore.
type Accounts struct {
	db *db
}

func (s *Accounts) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.accounts[account.ID] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (s *Accounts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	account := s.db.activeAccount(id)
	if account == nil {
		return nil, store.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Accounts) UpdateBalance(ctx context.Context, id uuid.UUID, balance domain.Money) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	account := s.db.activeAccount(id)
	if account == nil {
		return store.ErrAccountNotFound
	}
	account.Balance = balance
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Accounts) UpdateBusinessName(ctx context.Context, id uuid.UUID, name string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	account := s.db.activeAccount(id)
	if account == nil {
		return store.ErrAccountNotFound
	}
	account.BusinessName = name
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Accounts) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.activeAccount(id) != nil, nil
}

func (s *Accounts) List(ctx context.Context, limit, offset int64) ([]*domain.Account, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var accounts []*domain.Account
	for _, account := range s.db.accounts {
		if !account.Deleted() {
			accounts = append(accounts, cloneAccount(account))
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return paginate(accounts, limit, offset), nil
}

func (s *Accounts) SoftDelete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	account := s.db.activeAccount(id)
	if account == nil {
		return store.ErrAccountNotFound
	}
	now := time.Now().UTC()
	account.DeletedAt = &now
	account.UpdatedAt = now
	return nil
}

// Transactions implements store.TransactionStore.
type Transactions struct {
	db *db
}

func (s *Transactions) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.appendLedger(tx)
}

func (s *Transactions) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	tx, ok := s.db.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Transactions) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id, ok := s.db.idempotencyKeys[key]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return cloneTransaction(s.db.transactions[id]), nil
}

func (s *Transactions) IdempotencyKeyExists(ctx context.Context, key string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.idempotencyKeys[key]
	return ok, nil
}

func (s *Transactions) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int64) ([]*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var txs []*domain.Transaction
	// txOrder is insertion order; walk backwards for newest-first.
	for i := len(s.db.txOrder) - 1; i >= 0; i-- {
		tx := s.db.transactions[s.db.txOrder[i]]
		if (tx.FromAccountID != nil && *tx.FromAccountID == accountID) ||
			(tx.ToAccountID != nil && *tx.ToAccountID == accountID) {
			txs = append(txs, cloneTransaction(tx))
		}
	}
	return paginate(txs, limit, offset), nil
}

func (s *Transactions) ExecuteCredit(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	account := s.db.activeAccount(*tx.ToAccountID)
	if account == nil {
		return nil, store.ErrAccountNotFound
	}
	balance, err := account.Balance.Add(tx.Amount)
	if err != nil {
		return nil, err
	}

	created, err := s.db.appendLedger(tx)
	if err != nil {
		return nil, err
	}
	account.Balance = balance
	account.UpdatedAt = time.Now().UTC()
	return created, nil
}

func (s *Transactions) ExecuteDebit(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	account := s.db.activeAccount(*tx.FromAccountID)
	if account == nil {
		return nil, store.ErrAccountNotFound
	}
	if !account.HasSufficientBalance(tx.Amount) {
		return nil, &domain.InsufficientBalanceError{Available: account.Balance, Required: tx.Amount}
	}
	balance, err := account.Balance.Subtract(tx.Amount)
	if err != nil {
		return nil, err
	}

	created, err := s.db.appendLedger(tx)
	if err != nil {
		return nil, err
	}
	account.Balance = balance
	account.UpdatedAt = time.Now().UTC()
	return created, nil
}

func (s *Transactions) ExecuteTransfer(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	from := s.db.activeAccount(*tx.FromAccountID)
	to := s.db.activeAccount(*tx.ToAccountID)
	if from == nil || to == nil {
		return nil, store.ErrAccountNotFound
	}
	if !from.HasSufficientBalance(tx.Amount) {
		return nil, &domain.InsufficientBalanceError{Available: from.Balance, Required: tx.Amount}
	}

	fromBalance, err := from.Balance.Subtract(tx.Amount)
	if err != nil {
		return nil, err
	}
	toBalance, err := to.Balance.Add(tx.Amount)
	if err != nil {
		return nil, err
	}

	created, err := s.db.appendLedger(tx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	from.Balance, from.UpdatedAt = fromBalance, now
	to.Balance, to.UpdatedAt = toBalance, now
	return created, nil
}

// Webhooks implements store.WebhookStore.
type Webhooks struct {
	db *db
}

func (s *Webhooks) Create(ctx context.Context, webhook *domain.Webhook) (*domain.Webhook, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	clone := *webhook
	s.db.webhooks[webhook.ID] = &clone
	copied := clone
	return &copied, nil
}

func (s *Webhooks) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Webhook, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var webhooks []*domain.Webhook
	for _, webhook := range s.db.webhooks {
		if webhook.AccountID == accountID {
			clone := *webhook
			webhooks = append(webhooks, &clone)
		}
	}
	sort.Slice(webhooks, func(i, j int) bool {
		return webhooks[i].CreatedAt.Before(webhooks[j].CreatedAt)
	})
	return webhooks, nil
}

func (s *Webhooks) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.webhooks[id]; !ok {
		return store.ErrWebhookNotFound
	}
	delete(s.db.webhooks, id)
	return nil
}

// APIKeys implements store.APIKeyStore.
type APIKeys struct {
	db *db
}

func (s *APIKeys) Create(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.apiKeys {
		if existing.KeyHash == key.KeyHash {
			return nil, &store.ConstraintViolationError{Reason: "api key hash already exists"}
		}
	}
	clone := *key
	s.db.apiKeys[key.ID] = &clone
	copied := clone
	return &copied, nil
}

func (s *APIKeys) FindByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, key := range s.db.apiKeys {
		if key.KeyHash == keyHash {
			clone := *key
			return &clone, nil
		}
	}
	return nil, store.ErrAPIKeyNotFound
}

func (s *APIKeys) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key, ok := s.db.apiKeys[id]
	if !ok {
		return store.ErrAPIKeyNotFound
	}
	now := time.Now().UTC()
	key.LastUsedAt = &now
	return nil
}

func (s *APIKeys) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.apiKeys[id]; !ok {
		return store.ErrAPIKeyNotFound
	}
	delete(s.db.apiKeys, id)
	return nil
}

func (s *APIKeys) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.apiKeys[id]
	return ok, nil
}
