package memory

import (
	"context"
	"errors"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var (
	errTxClosed  = errors.New("transaction already closed")
	errForeignTx = errors.New("transaction does not belong to this store")
)

// Tx holds per-account locks and staged writes.
type Tx struct {
	store   *Store
	held    map[string]*record
	pending map[string]domain.Account
	done    bool
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &Tx{
		store:   s,
		held:    make(map[string]*record),
		pending: make(map[string]domain.Account),
	}, nil
}

func (t *Tx) acquire(ctx context.Context, id string, rec *record) error {
	if _, ok := t.held[id]; ok {
		return nil
	}

	select {
	case rec.lock <- struct{}{}:
		t.held[id] = rec
		return nil
	case <-ctx.Done():
		return domain.NewStorageError("lock account", ctx.Err())
	}
}

// Commit applies staged writes atomically and releases the locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return domain.NewStorageError("commit", errTxClosed)
	}

	t.store.mu.Lock()
	for id, acc := range t.pending {
		t.held[id].account = acc
	}
	t.store.mu.Unlock()

	t.release()
	return nil
}

// Rollback discards staged writes and releases the locks.
// It is a no-op once the transaction has ended.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	for _, rec := range t.held {
		<-rec.lock
	}
	t.held = nil
	t.pending = nil
	t.done = true
}
