package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/bankledger/internal/domain"
)

func TestTxManagerBeginSuccess(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(ledgerTxOptions)
	mockPool.ExpectCommit()

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx == nil {
		t.Fatalf("expected transaction")
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxManagerBeginError(t *testing.T) {
	mockPool := newMockPool(t)
	mockErr := errors.New("begin failed")
	mockPool.ExpectBeginTx(ledgerTxOptions).WillReturnError(mockErr)

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if err == nil || !errors.Is(err, mockErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestTxCommitError(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(ledgerTxOptions)
	mockPool.ExpectCommit().WillReturnError(errors.New("connection reset"))

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(context.Background()); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxRollback(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(ledgerTxOptions)
	mockPool.ExpectRollback()

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func TestTxCommitSerializationFailureIsConflict(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(ledgerTxOptions)
	mockPool.ExpectCommit().WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = tx.Commit(context.Background())
	if !errors.Is(err, domain.ErrConcurrentUpdate) || !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected retryable storage conflict, got %v", err)
	}

	assertExpectations(t, mockPool)
}
