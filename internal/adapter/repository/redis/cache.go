package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/usecase"
)

type summaryRecord struct {
	AccountCount int64           `json:"account_count"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// SummaryCache implements usecase.LedgerRepository by keeping the result of
// the wrapped repository in Redis for ttl. Cache failures fall through to the
// wrapped repository.
type SummaryCache struct {
	next   usecase.LedgerRepository
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSummaryCache creates a new SummaryCache.
func NewSummaryCache(client *redis.Client, next usecase.LedgerRepository, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		next:   next,
		client: client,
		key:    defaultPrefix + "cache:summary",
		ttl:    ttl,
	}
}

// Summary returns the cached figures, computing and storing them on a miss.
func (c *SummaryCache) Summary(ctx context.Context) (int64, decimal.Decimal, error) {
	logger := zerolog.Ctx(ctx)

	payload, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var rec summaryRecord
		if err := json.Unmarshal(payload, &rec); err == nil {
			return rec.AccountCount, rec.TotalBalance, nil
		}
		logger.Warn().Str("key", c.key).Msg("discarding malformed cached summary")
	case !errors.Is(err, redis.Nil):
		logger.Warn().Err(err).Msg("summary cache read failed")
	}

	count, total, err := c.next.Summary(ctx)
	if err != nil {
		return 0, decimal.Zero, err
	}

	payload, err = json.Marshal(summaryRecord{AccountCount: count, TotalBalance: total})
	if err == nil {
		err = c.client.Set(ctx, c.key, payload, c.ttl).Err()
	}
	if err != nil {
		logger.Warn().Err(err).Msg("summary cache write failed")
	}

	return count, total, nil
}

// Invalidate drops the cached summary.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
