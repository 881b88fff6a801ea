package safety

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arqnet/solarb/pkg/types"
)

// ttlCache wraps a plain LRU with a per-entry expiry, since
// golang-lru/v2 itself has no TTL concept. Expired entries are evicted
// lazily on the next get (spec §5: "stale entries are re-validated
// lazily").
type ttlCache struct {
	lru *lru.Cache[string, ttlEntry]
}

type ttlEntry struct {
	verdict   types.SafetyVerdict
	expiresAt int64
}

func newTTLCache(size int) (*ttlCache, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, ttlEntry](size)
	if err != nil {
		return nil, err
	}
	return &ttlCache{lru: c}, nil
}

func (c *ttlCache) get(key string, now int64) (types.SafetyVerdict, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return types.SafetyVerdict{}, false
	}
	if now >= e.expiresAt {
		c.lru.Remove(key)
		return types.SafetyVerdict{}, false
	}
	return e.verdict, true
}

func (c *ttlCache) put(key string, verdict types.SafetyVerdict, now int64, ttl time.Duration) {
	c.lru.Add(key, ttlEntry{verdict: verdict, expiresAt: now + int64(ttl.Seconds())})
}
