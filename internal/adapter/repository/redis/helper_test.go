package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient starts an in-process server. The returned client is
// small enough that a leaked transaction connection shows up as a stall.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr:     mr.Addr(),
		PoolSize: 16,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// newTestStore returns a repository and transaction manager sharing one client.
func newTestStore(t *testing.T) (*AccountRepository, *TxManager, *miniredis.Miniredis) {
	t.Helper()

	client, mr := newTestRedisClient(t)
	return NewAccountRepository(client), NewTxManager(client), mr
}
