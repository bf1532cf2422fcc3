// Package repository holds storage helpers shared by every account store backend.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Retrier implements usecase.Retrier with exponential backoff.
// Only concurrency conflicts are retried; every other error is returned as is.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
}

// NewRetrier creates a new Retrier allowing maxRetries extra attempts.
func NewRetrier(maxRetries int) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Retrier{
		maxRetries:      maxRetries,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	err := backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int("retry", retryCount).
			Msg("storage conflict, retrying")

		return err
	}, backoff.WithContext(b, ctx))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewStorageError("retry", err)
	}
	return err
}

// IsRetryableError reports whether err is a concurrency conflict that is safe to retry.
func IsRetryableError(err error) bool {
	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
