package token

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txtracer/internal/model"
)

// DefaultTTL is how long a cached token entry is considered fresh.
const DefaultTTL = 5 * time.Minute

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type entry struct {
	meta     model.TokenMeta
	cachedAt time.Time
}

// Cache maps lower-cased contract addresses to token metadata with a soft
// TTL: stale entries are superseded on the next lookup, never evicted.
// Concurrent lookups for the same uncached address race independent
// upstream calls; the reads are idempotent so the races are benign.
type Cache struct {
	caller Caller
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu   sync.RWMutex
	data map[string]entry
}

func NewCache(caller Caller, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		caller: caller,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
		data:   make(map[string]entry),
	}
}

// Get returns the token's metadata, fetching from chain when the cache has
// no fresh entry. A failed fetch is not cached: the caller gets a fallback
// UNKNOWN/18 value for this call only and the next lookup retries.
func (c *Cache) Get(ctx context.Context, address common.Address) model.TokenMeta {
	key := strings.ToLower(address.Hex())

	c.mu.RLock()
	cached, ok := c.data[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(cached.cachedAt) < c.ttl {
		return cached.meta
	}

	meta, err := fetchMeta(ctx, c.caller, address)
	if err != nil {
		c.logger.Debug("token metadata fetch failed",
			zap.String("token", key), zap.Error(err))
		return model.TokenMeta{Address: key, Symbol: "UNKNOWN", Decimals: 18}
	}

	c.mu.Lock()
	c.data[key] = entry{meta: meta, cachedAt: c.now()}
	c.mu.Unlock()

	return meta
}
