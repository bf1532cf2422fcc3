package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

const defaultPrefix = "bankledger:"

// accountRecord is the JSON document stored per account.
type accountRecord struct {
	ID         string          `json:"id"`
	HolderName string          `json:"holder_name"`
	Balance    decimal.Decimal `json:"balance"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// keyspace names the keys used by the store.
type keyspace struct {
	prefix string
}

func (k keyspace) account(id string) string {
	return k.prefix + "account:" + id
}

// index is a sorted set of account ids, all with score 0, so ZRANGE yields id order.
func (k keyspace) index() string {
	return k.prefix + "accounts"
}

// AccountRepository implements usecase.AccountRepository and
// usecase.LedgerRepository on top of Redis.
type AccountRepository struct {
	client *redis.Client
	keys   keyspace
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(client *redis.Client) *AccountRepository {
	return &AccountRepository{
		client: client,
		keys:   keyspace{prefix: defaultPrefix},
	}
}

// Create stores a new account and indexes its id.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	payload, err := encodeAccount(account)
	if err != nil {
		return domain.NewStorageError("create account", err)
	}

	var created *redis.BoolCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, r.keys.account(account.ID), payload, 0)
		pipe.ZAdd(ctx, r.keys.index(), redis.Z{Score: 0, Member: account.ID})
		return nil
	})
	if err != nil {
		return domain.NewStorageError("create account", err)
	}

	if !created.Val() {
		return domain.NewStorageError("create account", fmt.Errorf("duplicate account id %q", account.ID))
	}

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	payload, err := r.client.Get(ctx, r.keys.account(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, domain.NewStorageError("get account", err)
	}

	return decodeAccount(payload)
}

// GetByIDsForUpdate watches the account keys on the transaction's connection
// and reads them. A write by anyone else before commit aborts the commit.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*domain.Account{}, nil
	}

	keys := make([]string, len(ids))
	watchArgs := make([]any, 0, len(ids)+1)
	watchArgs = append(watchArgs, "WATCH")
	for i, id := range ids {
		keys[i] = r.keys.account(id)
		watchArgs = append(watchArgs, keys[i])
	}

	if err := t.conn.Process(ctx, redis.NewStatusCmd(ctx, watchArgs...)); err != nil {
		return nil, domain.NewStorageError("watch accounts", err)
	}
	t.watching = true

	values, err := t.conn.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.NewStorageError("get accounts", err)
	}

	accounts := make([]*domain.Account, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}

		acc, err := decodeAccount([]byte(s))
		if err != nil {
			return nil, err
		}

		t.watched[ids[i]] = r.keys.account(ids[i])
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// Update stages the account state for the transaction's MULTI/EXEC block.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	key, ok := t.watched[account.ID]
	if !ok {
		if _, err := r.GetByID(ctx, account.ID); err != nil {
			return err
		}
		return domain.NewStorageError("update account", fmt.Errorf("account %q is not watched by this transaction", account.ID))
	}

	payload, err := encodeAccount(account)
	if err != nil {
		return domain.NewStorageError("update account", err)
	}

	t.pending[key] = payload
	return nil
}

// List lists accounts ordered by id. A limit of zero lists all of them.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	start := int64(offset)
	stop := int64(-1)
	if limit > 0 {
		stop = start + int64(limit) - 1
	}

	ids, err := r.client.ZRange(ctx, r.keys.index(), start, stop).Result()
	if err != nil {
		return nil, domain.NewStorageError("list accounts", err)
	}

	return r.load(ctx, ids)
}

// Summary returns the account count and the sum of all balances.
func (r *AccountRepository) Summary(ctx context.Context) (int64, decimal.Decimal, error) {
	accounts, err := r.List(ctx, 0, 0)
	if err != nil {
		return 0, decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}

	return int64(len(accounts)), total, nil
}

// Ping checks the Redis connection.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *AccountRepository) load(ctx context.Context, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return []*domain.Account{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.account(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.NewStorageError("list accounts", err)
	}

	accounts := make([]*domain.Account, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}

		acc, err := decodeAccount([]byte(s))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

func encodeAccount(a *domain.Account) ([]byte, error) {
	return json.Marshal(accountRecord{
		ID:         a.ID,
		HolderName: a.HolderName,
		Balance:    a.Balance,
		Version:    a.Version,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	})
}

func decodeAccount(payload []byte) (*domain.Account, error) {
	var rec accountRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, domain.NewStorageError("decode account", err)
	}

	return &domain.Account{
		ID:         rec.ID,
		HolderName: rec.HolderName,
		Balance:    rec.Balance,
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}
