package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var errTxClosed = errors.New("transaction already closed")

// TxManager implements usecase.TransactionManager with WATCH and MULTI/EXEC
// on a dedicated connection.
type TxManager struct {
	client *redis.Client
}

// NewTxManager creates a new TxManager.
func NewTxManager(client *redis.Client) *TxManager {
	return &TxManager{client: client}
}

// Begin reserves a connection for the transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &Tx{
		conn:    m.client.Conn(),
		watched: make(map[string]string),
		pending: make(map[string][]byte),
	}, nil
}

// Tx is an optimistic Redis transaction.
type Tx struct {
	conn     *redis.Conn
	watched  map[string]string // account id -> key
	pending  map[string][]byte // key -> payload
	watching bool
	done     bool
}

// Commit writes the staged accounts in one MULTI/EXEC block.
// If a watched key changed since it was read, nothing is written and the
// returned error matches domain.ErrConcurrentUpdate.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return domain.NewStorageError("commit", errTxClosed)
	}
	defer t.close(ctx)

	if len(t.pending) == 0 {
		return nil
	}

	_, err := t.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, payload := range t.pending {
			pipe.Set(ctx, key, payload, 0)
		}
		return nil
	})
	// EXEC clears the watch whether it succeeded or not.
	t.watching = false

	if errors.Is(err, redis.TxFailedErr) {
		return domain.NewStorageError("commit", domain.ErrConcurrentUpdate)
	}
	if err != nil {
		return domain.NewStorageError("commit", err)
	}

	return nil
}

// Rollback drops staged writes and releases the connection.
// It is a no-op once the transaction has ended.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.close(ctx)
	return nil
}

func (t *Tx) close(ctx context.Context) {
	if t.watching {
		_ = t.conn.Process(ctx, redis.NewStatusCmd(ctx, "UNWATCH"))
		t.watching = false
	}
	_ = t.conn.Close()
	t.pending = nil
	t.done = true
}

func txFrom(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, domain.NewStorageError("transaction", errors.New("transaction does not belong to this store"))
	}
	if t.done {
		return nil, domain.NewStorageError("transaction", errTxClosed)
	}
	return t, nil
}
