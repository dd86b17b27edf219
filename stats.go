package opcache

// Stats is a point-in-time snapshot of the cache's runtime counters.
//
//   - Hits      → Get calls that returned a live value.
//   - Misses    → Get calls that found nothing, or found an expired entry.
//   - Evictions → entries removed by TrimToCost, TrimToCostByDate, or
//     TrimToDate — never incremented by Remove, RemoveAll, or the lazy
//     expiry check inside Get, which are not capacity/date-triggered.
//
// The zero value is an empty cache's stats.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns a snapshot of the cache's current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
