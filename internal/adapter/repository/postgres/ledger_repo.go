package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepositoryWithDB(pool)
}

func newLedgerRepositoryWithDB(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// Summary returns the number of accounts and the sum of their balances.
func (r *LedgerRepository) Summary(ctx context.Context) (int64, decimal.Decimal, error) {
	row, err := r.queries.SummarizeAccounts(ctx)
	if err != nil {
		return 0, decimal.Zero, wrapError("summarize accounts", err)
	}

	return row.AccountCount, numericToDecimal(row.TotalBalance), nil
}
