// Package cache holds transformed list pages keyed by their composite query
// key. Entries expire a fixed TTL after they were captured.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/alfredjeanlab/freightdesk/internal/model"
)

// DefaultTTL is how long a page stays valid after it was fetched.
const DefaultTTL = 5 * time.Minute

// Entry is one cached page. Term is the search that was actually executed
// to fill it. CapturedAt is the fetch completion time.
type Entry struct {
	Records    []model.DisplayRecord
	Pagination model.Pagination
	Term       model.SearchTerm
	CapturedAt time.Time
}

// PageCache is a TTL cache of pages. Expiry is checked against an injectable
// clock on read rather than by a background janitor, so tests can move time.
// PageCache does no locking of its own beyond what go-cache provides; callers
// that need Get-then-Put atomicity must serialize themselves.
type PageCache struct {
	items *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// New creates a PageCache. A non-positive ttl selects DefaultTTL and a nil
// clock selects time.Now.
func New(ttl time.Duration, now func() time.Time) *PageCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &PageCache{
		items: gocache.New(gocache.NoExpiration, 0),
		ttl:   ttl,
		now:   now,
	}
}

// TTL returns the configured time-to-live.
func (c *PageCache) TTL() time.Duration { return c.ttl }

// Get returns the entry for key while it is younger than the TTL. An expired
// entry is removed and reported absent.
func (c *PageCache) Get(key string) (Entry, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return Entry{}, false
	}
	e := v.(Entry)
	if c.now().Sub(e.CapturedAt) >= c.ttl {
		c.items.Delete(key)
		return Entry{}, false
	}
	return e, true
}

// Put stores e under key, replacing any previous entry whole.
func (c *PageCache) Put(key string, e Entry) {
	c.items.Set(key, e, gocache.NoExpiration)
}

// Delete removes one key.
func (c *PageCache) Delete(key string) {
	c.items.Delete(key)
}

// Clear drops every entry.
func (c *PageCache) Clear() {
	c.items.Flush()
}

// Len returns the number of stored entries, expired ones included until
// they are next read.
func (c *PageCache) Len() int {
	return c.items.ItemCount()
}
