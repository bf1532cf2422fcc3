package postgres

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/repository"
	"github.com/iho/bankledger/internal/domain"
)

func testAccount() *domain.Account {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Account{
		ID:         "acc-1",
		HolderName: "Alice",
		Balance:    decimal.RequireFromString("500.00"),
		Version:    2,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestAccountRepository_Create(t *testing.T) {
	mockPool := newMockPool(t)
	acc := testAccount()

	mockPool.ExpectExec("INSERT INTO accounts").
		WithArgs(acc.ID, acc.HolderName, pgxmock.AnyArg(), acc.Version, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := newAccountRepositoryWithDB(mockPool)
	require.NoError(t, repo.Create(context.Background(), acc))
	assertExpectations(t, mockPool)
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	mockPool := newMockPool(t)
	acc := testAccount()

	mockPool.ExpectExec("INSERT INTO accounts").
		WithArgs(acc.ID, acc.HolderName, pgxmock.AnyArg(), acc.Version, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "accounts_pkey"})

	repo := newAccountRepositoryWithDB(mockPool)
	err := repo.Create(context.Background(), acc)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assertExpectations(t, mockPool)
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM accounts WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := newAccountRepositoryWithDB(mockPool)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, mockPool)
}

func TestAccountRepository_ListError(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("ORDER BY id").
		WithArgs(int32(10), int32(0)).
		WillReturnError(errors.New("connection refused"))

	repo := newAccountRepositoryWithDB(mockPool)
	_, err := repo.List(context.Background(), 10, 0)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assertExpectations(t, mockPool)
}

func TestAccountRepository_ListAllUsesOffsetOnly(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("ORDER BY id").
		WithArgs(int32(5)).
		WillReturnError(errors.New("connection refused"))

	repo := newAccountRepositoryWithDB(mockPool)
	_, err := repo.List(context.Background(), 0, 5)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assertExpectations(t, mockPool)
}

func TestAccountRepository_ListOffsetDoesNotWrap(t *testing.T) {
	tests := []struct {
		name   string
		offset int
	}{
		{"beyond uint32", 1 << 32},
		{"beyond int32", math.MaxInt32 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			mockPool.ExpectQuery("ORDER BY id").
				WithArgs(int32(math.MaxInt32)).
				WillReturnError(errors.New("stop"))

			repo := newAccountRepositoryWithDB(mockPool)
			_, err := repo.List(context.Background(), 0, tt.offset)
			assert.ErrorIs(t, err, domain.ErrStorage)
			assertExpectations(t, mockPool)
		})
	}
}

func TestAccountRepository_Update(t *testing.T) {
	acc := testAccount()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "updated",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE accounts").
					WithArgs(acc.ID, pgxmock.AnyArg(), acc.Version, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "missing row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE accounts").
					WithArgs(acc.ID, pgxmock.AnyArg(), acc.Version, pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "balance check violated",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE accounts").
					WithArgs(acc.ID, pgxmock.AnyArg(), acc.Version, pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: "accounts_balance_check"})
			},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "serialization failure",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE accounts").
					WithArgs(acc.ID, pgxmock.AnyArg(), acc.Version, pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "40001"})
			},
			wantErr: domain.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			mockPool.ExpectBeginTx(ledgerTxOptions)
			tt.setup(mockPool)
			mockPool.ExpectRollback()

			ctx := context.Background()
			tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
			require.NoError(t, err)

			repo := newAccountRepositoryWithDB(mockPool)
			err = repo.Update(ctx, tx, acc)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}

			require.NoError(t, tx.Rollback(ctx))
			assertExpectations(t, mockPool)
		})
	}
}

func TestWrapErrorKeepsConflictsRetryable(t *testing.T) {
	err := wrapError("update account", &pgconn.PgError{Code: "40P01"})

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.True(t, repository.IsRetryableError(err))
}

func TestLedgerRepository_SummaryError(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("COUNT").WillReturnError(errors.New("timeout"))

	repo := newLedgerRepositoryWithDB(mockPool)
	_, _, err := repo.Summary(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assertExpectations(t, mockPool)
}

func TestNumericConversion(t *testing.T) {
	for _, s := range []string{"0", "0.01", "550.00", "1000000000000", "12.5"} {
		d := decimal.RequireFromString(s)
		got := numericToDecimal(decimalToNumeric(d))
		assert.True(t, d.Equal(got), "round trip of %s gave %s", s, got)
	}

	assert.True(t, numericToDecimal(decimalToNumeric(decimal.Zero)).IsZero())
	assert.True(t, numericToDecimal(pgtype.Numeric{}).IsZero())
}
