// Package cache keeps recently served search responses in memory.
//
// Responses are stored in their wire encoding, so a cached entry goes
// through the same codec as any other client of the search API. Entries that
// no longer decode are evicted and recomputed.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rubiojr/pkgsearch/pkg/log"
	"github.com/rubiojr/pkgsearch/pkg/search"
)

// Fetcher produces the search response for a request.
type Fetcher interface {
	Fetch(ctx context.Context, params search.Params) (search.Response, error)
}

// Stats are cache counters since creation or the last Purge.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// ResponseCache wraps a Fetcher with an expiring LRU keyed by query and
// page. A nil lru means caching is disabled.
type ResponseCache struct {
	inner  Fetcher
	lru    *expirable.LRU[string, []byte]
	logger *log.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a response cache holding at most size responses for ttl.
// A size of zero or less disables caching; a ttl of zero never expires.
func New(inner Fetcher, size int, ttl time.Duration) *ResponseCache {
	c := &ResponseCache{
		inner:  inner,
		logger: log.ForService("cache"),
	}
	if size > 0 {
		c.lru = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
	return c
}

// Enabled reports whether responses are being cached.
func (c *ResponseCache) Enabled() bool {
	return c.lru != nil
}

func key(params search.Params) string {
	page := params.Page
	if page < 1 {
		page = 1
	}
	return strings.TrimSpace(params.Query) + "\x00" + strconv.Itoa(page)
}

// Fetch returns the cached response for params, or fetches and caches it.
// Errors are never cached.
func (c *ResponseCache) Fetch(ctx context.Context, params search.Params) (search.Response, error) {
	if c.lru == nil {
		return c.inner.Fetch(ctx, params)
	}

	k := key(params)
	if data, ok := c.lru.Get(k); ok {
		var resp search.Response
		err := json.Unmarshal(data, &resp)
		if err == nil {
			c.hits.Add(1)
			return resp, nil
		}
		c.logger.Warnf("evicting undecodable cache entry for %q: %v", params.Query, err)
		c.lru.Remove(k)
		c.evictions.Add(1)
	}
	c.misses.Add(1)

	resp, err := c.inner.Fetch(ctx, params)
	if err != nil {
		return search.Response{}, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warnf("not caching response for %q: %v", params.Query, err)
		return resp, nil
	}
	c.lru.Add(k, data)
	return resp, nil
}

// Purge drops every cached response and resets the counters.
func (c *ResponseCache) Purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

func (c *ResponseCache) Stats() Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	if c.lru != nil {
		s.Entries = c.lru.Len()
	}
	return s
}
