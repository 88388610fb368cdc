package application

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// activeDatesKey is the single cache key. The active-dates read model has
// no parameters; entries expire on TTL and on every engine mutation.
const activeDatesKey = "active"

// dateCache memoizes the active-dates read model between engine mutations.
type dateCache struct {
	entries *lru.LRU[string, []AvailableDate]
}

func newDateCache(ttl time.Duration, size int) *dateCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if size <= 0 {
		size = 16
	}
	return &dateCache{
		entries: lru.NewLRU[string, []AvailableDate](size, nil, ttl),
	}
}

func (c *dateCache) Get() ([]AvailableDate, bool) {
	if c == nil || c.entries == nil {
		return nil, false
	}
	dates, ok := c.entries.Get(activeDatesKey)
	if !ok {
		return nil, false
	}
	return cloneDates(dates), true
}

func (c *dateCache) Store(dates []AvailableDate) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Add(activeDatesKey, cloneDates(dates))
}

func (c *dateCache) Invalidate() {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Purge()
}

func cloneDates(dates []AvailableDate) []AvailableDate {
	if len(dates) == 0 {
		return nil
	}
	out := make([]AvailableDate, len(dates))
	copy(out, dates)
	return out
}
