// Package memory keeps accounts in process memory.
//
// Each account carries its own lock, taken in ascending id order by
// GetByIDsForUpdate and held until the transaction ends. Staged writes are
// applied under the store-wide write lock, so readers see a transfer either
// fully applied or not at all.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type record struct {
	lock    chan struct{}
	account domain.Account
}

// Store implements usecase.AccountRepository, usecase.LedgerRepository and
// usecase.TransactionManager.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

// Create stores a new account.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[account.ID]; ok {
		return domain.NewStorageError("create account", fmt.Errorf("duplicate account id %q", account.ID))
	}

	s.records[account.ID] = &record{
		lock:    make(chan struct{}, 1),
		account: *account,
	}

	return nil
}

// GetByID returns a copy of the committed account state.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	acc := rec.account
	return &acc, nil
}

// List returns accounts ordered by id.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.RLock()
	accounts := make([]*domain.Account, 0, len(s.records))
	for _, rec := range s.records {
		acc := rec.account
		accounts = append(accounts, &acc)
	}
	s.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	if offset >= len(accounts) {
		return []*domain.Account{}, nil
	}
	accounts = accounts[offset:]

	if limit > 0 && limit < len(accounts) {
		accounts = accounts[:limit]
	}

	return accounts, nil
}

// Summary returns the account count and the sum of all balances.
func (s *Store) Summary(ctx context.Context) (int64, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, rec := range s.records {
		total = total.Add(rec.account.Balance)
	}

	return int64(len(s.records)), total, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// GetByIDsForUpdate locks the known accounts among ids for the lifetime of tx.
func (s *Store) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := s.txFrom(tx)
	if err != nil {
		return nil, err
	}

	sorted := uniqueSorted(ids)
	accounts := make([]*domain.Account, 0, len(sorted))

	for _, id := range sorted {
		s.mu.RLock()
		rec, ok := s.records[id]
		s.mu.RUnlock()

		if !ok {
			continue
		}

		if err := t.acquire(ctx, id, rec); err != nil {
			return nil, err
		}

		s.mu.RLock()
		acc := rec.account
		s.mu.RUnlock()

		accounts = append(accounts, &acc)
	}

	return accounts, nil
}

// Update stages the account state; it becomes visible on commit.
func (s *Store) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := s.txFrom(tx)
	if err != nil {
		return err
	}

	if _, ok := t.held[account.ID]; !ok {
		if _, err := s.GetByID(ctx, account.ID); err != nil {
			return err
		}
		return domain.NewStorageError("update account", fmt.Errorf("account %q is not locked by this transaction", account.ID))
	}

	t.pending[account.ID] = *account
	return nil
}

func (s *Store) txFrom(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, domain.NewStorageError("transaction", errForeignTx)
	}
	if t.done {
		return nil, domain.NewStorageError("transaction", errTxClosed)
	}
	return t, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
