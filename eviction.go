package opcache

import "time"

/*
Eviction implements the three trim algorithms: cost-first, cost-by-date,
and date-cutoff. All three invoke willRemove/didRemove under c.mu per
entry, and notify KCOR Deleted once per removed key after releasing c.mu —
matching the locking discipline used by Set and Remove.

TrimToCost picks the costliest entry first (ties: older last-access
first), via the cost-ordered max-heap. TrimToCostByDate and the non-TTL
branch of TrimToDate pick the least-recently-used entry first, via the
recency list's Back(). TrimToCostByDate stops as soon as totalCost is
within target, and the non-TTL branch of TrimToDate at the first entry
newer than cutoff, so neither scans the whole cache in the common case.
*/

// TrimToCost repeatedly removes the greatest-cost entry until totalCost
// is at most target.
func (c *Cache) TrimToCost(target int64) {
	removed := c.trimToCostLocked(target)
	c.notifyRemoved(removed)
}

func (c *Cache) trimToCostLocked(target int64) []string {
	c.mu.Lock()
	var removed []string
	for c.totalCost > target && c.costHeap.Len() > 0 {
		e := c.costHeap[0]
		invokeObjectCallback(&c.callbacks.willRemove, c, e.key, e.value)
		c.detachLocked(e)
		invokeObjectCallback(&c.callbacks.didRemove, c, e.key, e.value)
		c.stats.Evictions++
		removed = append(removed, e.key)
	}
	c.mu.Unlock()
	return removed
}

// TrimToCostByDate repeatedly removes the least-recently-used entry until
// totalCost is at most target.
func (c *Cache) TrimToCostByDate(target int64) {
	removed := c.trimToCostByDateLocked(target)
	c.notifyRemoved(removed)
}

func (c *Cache) trimToCostByDateLocked(target int64) []string {
	c.mu.Lock()
	var removed []string
	for c.totalCost > target {
		back := c.recency.Back()
		if back == nil {
			break
		}
		e := back.Value.(*entry)
		invokeObjectCallback(&c.callbacks.willRemove, c, e.key, e.value)
		c.detachLocked(e)
		invokeObjectCallback(&c.callbacks.didRemove, c, e.key, e.value)
		c.stats.Evictions++
		removed = append(removed, e.key)
	}
	c.mu.Unlock()
	return removed
}

// TrimToDate removes every entry whose relevant timestamp is at or before
// cutoff: last-access in non-TTL mode (matching the recency ordering
// date-based trim relies on), creation time in TTL mode (matching TTL
// semantics, where access never extends lifetime).
func (c *Cache) TrimToDate(cutoff time.Time) {
	removed := c.trimToDateLocked(cutoff)
	c.notifyRemoved(removed)
}

func (c *Cache) trimToDateLocked(cutoff time.Time) []string {
	c.mu.Lock()
	ttl := c.ttlCache
	var removed []string
	for e := c.recency.Back(); e != nil; {
		item := e.Value.(*entry)
		prev := e.Prev()

		relevant := item.lastAccess
		if ttl {
			relevant = item.createdAt
		}
		if relevant.After(cutoff) {
			if !ttl {
				// Every entry further toward the front was accessed later.
				break
			}
			// The recency list is ordered by lastAccess; in TTL mode
			// that is not the same ordering as createdAt, so early
			// termination is unsafe here and the full list is walked.
			e = prev
			continue
		}

		invokeObjectCallback(&c.callbacks.willRemove, c, item.key, item.value)
		c.detachLocked(item)
		invokeObjectCallback(&c.callbacks.didRemove, c, item.key, item.value)
		c.stats.Evictions++
		removed = append(removed, item.key)
		e = prev
	}
	c.mu.Unlock()
	return removed
}

func (c *Cache) notifyRemoved(keys []string) {
	for _, key := range keys {
		c.observers.Deleted(c, key)
	}
}
