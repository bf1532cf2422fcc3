package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate acquires the accounts for mutation within tx, in ascending id order.
	// Unknown ids are omitted from the result.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	// List returns accounts ordered by id. A limit of zero returns all of them.
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// LedgerRepository defines data access for ledger-wide figures.
type LedgerRepository interface {
	Summary(ctx context.Context) (accountCount int64, totalBalance decimal.Decimal, err error)
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation when the store reports a concurrency conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// MetricsRecorder receives ledger instrumentation.
type MetricsRecorder interface {
	AccountCreated()
	ObserveOperation(operation string, amount decimal.Decimal, err error, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) AccountCreated() {}

func (noopRecorder) ObserveOperation(string, decimal.Decimal, error, time.Duration) {}

type singleAttempt struct{}

func (singleAttempt) Retry(_ context.Context, operation func() error) error {
	return operation()
}
