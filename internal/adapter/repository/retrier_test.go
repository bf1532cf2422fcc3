package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/bankledger/internal/domain"
)

func fastRetrier(maxRetries int) *Retrier {
	r := NewRetrier(maxRetries)
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = time.Second
	return r
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierRetriesOptimisticConflict(t *testing.T) {
	r := fastRetrier(3)

	attempts := 0
	conflict := domain.NewStorageError("commit", domain.ErrConcurrentUpdate)
	err := r.Retry(context.Background(), func() error {
		attempts++
		return conflict
	})

	if !errors.Is(err, domain.ErrConcurrentUpdate) || !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected conflict surfaced as storage error, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.ErrInsufficientFunds
	})

	if err != domain.ErrInsufficientFunds {
		t.Fatalf("expected domain error returned unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierZeroRetries(t *testing.T) {
	r := fastRetrier(0)
	attempts := 0

	_ = r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	retryableErr := &pgconn.PgError{Code: pgErrDeadlock}
	if !IsRetryableError(retryableErr) {
		t.Fatalf("expected deadlock error to be retryable")
	}

	wrapped := domain.NewStorageError("update", &pgconn.PgError{Code: pgErrSerializationFailure})
	if !IsRetryableError(wrapped) {
		t.Fatalf("expected wrapped serialization failure to be retryable")
	}

	nonRetryable := errors.New("other")
	if IsRetryableError(nonRetryable) {
		t.Fatalf("expected generic error to be non-retryable")
	}

	if IsRetryableError(domain.ErrAccountNotFound) {
		t.Fatalf("expected domain error to be non-retryable")
	}
}

func TestRetrierCancelledContextSurfacesStorageError(t *testing.T) {
	r := fastRetrier(5)
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return domain.NewStorageError("commit", domain.ErrConcurrentUpdate)
	})

	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation cause to be kept, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestRetrierDeadlineSurfacesStorageError(t *testing.T) {
	r := fastRetrier(1000)
	r.maxElapsedTime = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Retry(ctx, func() error {
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline surfaced as storage error, got %v", err)
	}
}

func TestULIDGeneratorProducesUniqueSortableIDs(t *testing.T) {
	g := NewULIDGenerator()
	first := g.Generate()
	time.Sleep(2 * time.Millisecond)
	second := g.Generate()

	if len(first) != 26 || first == second {
		t.Fatalf("unexpected ids %q %q", first, second)
	}
	if first >= second {
		t.Fatalf("expected later id to sort after earlier one: %q %q", first, second)
	}
}
