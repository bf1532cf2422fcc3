package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
	"github.com/iho/bankledger/internal/usecase"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
)

type queryPool interface {
	generated.DBTX
	Ping(context.Context) error
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db      queryPool
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepositoryWithDB(pool)
}

func newAccountRepositoryWithDB(db queryPool) *AccountRepository {
	return &AccountRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:         account.ID,
		HolderName: account.HolderName,
		Balance:    decimalToNumeric(account.Balance),
		Version:    account.Version,
		CreatedAt:  timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:  timeToPgTimestamptz(account.UpdatedAt),
	})

	return wrapError("create account", err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, wrapError("get account", err)
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks.
// Rows are locked in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	rows, err := generated.New(pgxTx).GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, wrapError("lock accounts", err)
	}

	return rowsToAccounts(rows), nil
}

// Update persists the account's balance, version and update time.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	affected, err := generated.New(pgxTx).UpdateAccount(ctx, generated.UpdateAccountParams{
		ID:        account.ID,
		Balance:   decimalToNumeric(account.Balance),
		Version:   account.Version,
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return wrapError("update account", err)
	}

	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts ordered by id. A limit of zero lists all of them.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var (
		rows []generated.Account
		err  error
	)

	if limit > 0 {
		rows, err = r.queries.ListAccounts(ctx, generated.ListAccountsParams{
			Limit:  clampInt32(limit),
			Offset: clampInt32(offset),
		})
	} else {
		rows, err = r.queries.ListAllAccounts(ctx, clampInt32(offset))
	}
	if err != nil {
		return nil, wrapError("list accounts", err)
	}

	return rowsToAccounts(rows), nil
}

// Ping checks the database connection.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return wrapError("ping", r.db.Ping(ctx))
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return domain.NewStorageError(op, fmt.Errorf("duplicate account id: %w", err))
		case pgErrCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrInsufficientFunds, pgErr.ConstraintName)
		case pgErrSerializationFailure, pgErrDeadlockDetected:
			return domain.NewStorageError(op, fmt.Errorf("%w: %w", domain.ErrConcurrentUpdate, err))
		}
	}

	return domain.NewStorageError(op, err)
}

// clampInt32 keeps LIMIT and OFFSET arguments from wrapping around.
func clampInt32(n int) int32 {
	return int32(min(max(n, 0), math.MaxInt32))
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:         row.ID,
		HolderName: row.HolderName,
		Balance:    numericToDecimal(row.Balance),
		Version:    row.Version,
		CreatedAt:  row.CreatedAt.Time.UTC(),
		UpdatedAt:  row.UpdatedAt.Time.UTC(),
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
