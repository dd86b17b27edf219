package opcache

import (
	"container/heap"
	"container/list"
	"sync"
	"time"

	"github.com/opcache/opcache/featureflag"
	"github.com/opcache/opcache/hostevent"
	"github.com/opcache/opcache/kcor"
	"github.com/opcache/opcache/poq"
	"github.com/rs/zerolog"
)

/*
Cache implements a thread-safe, in-memory key/value store combining:

  - A hash map (map[string]*entry) for O(1) key lookup.
  - A doubly linked list (container/list) for recency ordering: the
    front holds the most recently touched entry, the back the oldest,
    feeding date-based trim.
  - A cost-ordered max-heap (container/heap) feeding cost-first trim.

Every operation that touches entries, cost totals, or either index
acquires mu for the full extent of the mutation; lifecycle callbacks run
with mu held, so calling back into the cache from one deadlocks. This is
documented, not defended against.

Asynchronous operations submit a closure to an owned poq.Queue at the
requested priority; the closure acquires mu, mutates state, invokes
lifecycle callbacks under the lock, releases mu, then invokes the
caller's completion callback outside the lock. Synchronous operations
bypass poq and run inline on the calling goroutine, still serialized by
mu.
*/
type Cache struct {
	mu        sync.Mutex
	data      map[string]*entry
	recency   *list.List // container/list; Back() is oldest by last access
	costHeap  costHeap
	totalCost int64

	costLimit                 int64
	ageLimit                  time.Duration
	removeAllOnMemoryPressure bool
	removeAllOnHostSuspend    bool

	name     string
	ttlCache bool

	callbacks callbacks

	ownsQueue     bool
	queue         *poq.Queue
	observerQueue *poq.Queue
	observers     *kcor.Registry

	ageTimer     *time.Ticker
	ageTimerDone chan struct{}

	logger         zerolog.Logger
	featureLookup  featureflag.Lookup
	backgroundTask hostevent.BackgroundTask
	disker         Disker

	stats Stats

	closeOnce sync.Once
}

// New constructs a configured Cache. Construction applies every Option in
// order, then starts the owned POQ worker pool (sized by
// WithMaxConcurrentOperations, default 4) for async cache operations, a
// second, dedicated single-worker POQ queue for the KCOR delivery
// registry, and — if ageLimit is non-zero — the recurring age-limit
// timer.
//
// KCOR delivery deliberately does not ride on the multi-worker queue:
// with more than one delivery worker, two notifications for the same key
// (say, Updated then Deleted) could be picked up by different workers
// and complete out of submission order. A single dedicated worker keeps
// per-key notification order equal to submission order regardless of
// WithMaxConcurrentOperations.
func New(opts ...Option) *Cache {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxConcurrentOperations <= 0 {
		cfg.maxConcurrentOperations = 4
	}

	queue, err := poq.New(cfg.maxConcurrentOperations)
	if err != nil {
		// cfg.maxConcurrentOperations is clamped to >= 1 above, so New
		// only fails here if that invariant is broken by a future edit.
		panic(err)
	}
	observerQueue, err := poq.New(1)
	if err != nil {
		panic(err) // 1 is always a valid concurrency level
	}

	c := &Cache{
		data:                      make(map[string]*entry),
		recency:                   list.New(),
		name:                      cfg.name,
		ttlCache:                  cfg.ttlCache,
		costLimit:                 cfg.costLimit,
		ageLimit:                  cfg.ageLimit,
		removeAllOnMemoryPressure: cfg.removeAllOnMemoryPressure,
		removeAllOnHostSuspend:    cfg.removeAllOnHostSuspend,
		ownsQueue:                 true,
		queue:                     queue,
		observerQueue:             observerQueue,
		logger:                    cfg.logger,
		featureLookup:             cfg.featureLookup,
		backgroundTask:            cfg.backgroundTask,
		disker:                    cfg.disker,
	}
	c.observers = kcor.New(observerQueue)

	// Resolve the experimental flags once, at construction, so later Set
	// calls never consult the injected lookup again.
	c.featureLookup = featureflag.Static(map[string]bool{
		"sync-overshoot-trim": c.featureEnabled("sync-overshoot-trim"),
	})

	storeObjectCallback(&c.callbacks.willAdd, cfg.willAdd)
	storeObjectCallback(&c.callbacks.didAdd, cfg.didAdd)
	storeObjectCallback(&c.callbacks.willRemove, cfg.willRemove)
	storeObjectCallback(&c.callbacks.didRemove, cfg.didRemove)
	storeCallback(&c.callbacks.willRemoveAll, cfg.willRemoveAll)
	storeCallback(&c.callbacks.didRemoveAll, cfg.didRemoveAll)
	storeCallback(&c.callbacks.onMemoryPressure, cfg.onMemoryPressure)
	storeCallback(&c.callbacks.onHostSuspend, cfg.onHostSuspend)

	if cfg.ageLimit > 0 {
		c.startAgeTimer(cfg.ageLimit)
	}

	return c
}

// Name returns the construction-time identifier, or "" if unset.
func (c *Cache) Name() string { return c.name }

// Observers exposes the owned KCOR registry so callers can register
// AddObserver/RemoveObserver callbacks for key-change notifications,
// delivered in submission order on a dedicated single-worker queue (see
// New's doc comment).
func (c *Cache) Observers() *kcor.Registry { return c.observers }

// IsTTLCache reports whether this cache behaves as a TTL cache.
func (c *Cache) IsTTLCache() bool { return c.ttlCache }

// TotalCost returns the current sum of live-entry costs.
func (c *Cache) TotalCost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

// CostLimit returns the current cost limit (0 means cost trimming is
// disabled).
func (c *Cache) CostLimit() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.costLimit
}

// SetCostLimit updates the cost limit. It does not itself trigger a trim;
// the next Set that overshoots it will.
func (c *Cache) SetCostLimit(limit int64) {
	c.mu.Lock()
	c.costLimit = limit
	c.mu.Unlock()
}

// AgeLimit returns the current cache-wide age limit (0 means age
// trimming is disabled).
func (c *Cache) AgeLimit() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ageLimit
}

// SetAgeLimit updates the cache-wide age limit. Setting it to a value
// greater than zero (re)arms the recurring age-limit timer with that
// period; setting it to zero disarms the timer.
func (c *Cache) SetAgeLimit(limit time.Duration) {
	c.mu.Lock()
	c.ageLimit = limit
	c.mu.Unlock()

	if limit > 0 {
		c.startAgeTimer(limit)
	} else {
		c.stopAgeTimer()
	}
}

// SetRemoveAllOnMemoryPressure toggles whether HandleMemoryPressure
// performs RemoveAll.
func (c *Cache) SetRemoveAllOnMemoryPressure(enabled bool) {
	c.mu.Lock()
	c.removeAllOnMemoryPressure = enabled
	c.mu.Unlock()
}

// SetRemoveAllOnHostSuspend toggles whether HandleHostSuspend performs
// RemoveAll.
func (c *Cache) SetRemoveAllOnHostSuspend(enabled bool) {
	c.mu.Lock()
	c.removeAllOnHostSuspend = enabled
	c.mu.Unlock()
}

// Contains reports whether key is present and, in TTL mode, not expired.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return false
	}
	return !c.expiredLocked(e, time.Now())
}

// Get retrieves key's value. In non-TTL mode this is a classic LRU touch:
// the entry's recency position is updated and its lifetime is extended.
// In TTL mode, Get never extends lifetime, and an entry whose age exceeds
// its effective age limit is treated as absent (and removed under this
// same lock acquisition, invoking willRemove/didRemove).
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()

	e, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false
	}

	now := time.Now()
	if c.expiredLocked(e, now) {
		c.removeEntryLocked(e)
		c.stats.Misses++
		c.mu.Unlock()
		c.observers.Deleted(c, key)
		return nil, false
	}

	if !c.ttlCache {
		e.lastAccess = now
		c.recency.MoveToFront(e.recencyElem)
		heap.Fix(&c.costHeap, e.costIndex) // lastAccess breaks cost ties
	}
	c.stats.Hits++
	value := e.value
	c.mu.Unlock()
	return value, true
}

// Set inserts or updates key. ageLimit, if non-nil, overrides the
// cache-wide ageLimit for this entry and must be > 0 (InvalidArgument
// otherwise). If the new totalCost overshoots costLimit, a Default-
// priority async TrimToCostByDate is scheduled after the insert
// completes; with the "sync-overshoot-trim" feature flag enabled, that
// trim runs inline on the calling goroutine instead.
func (c *Cache) Set(key string, value any, cost int64, ageLimit *time.Duration) error {
	if ageLimit != nil && *ageLimit <= 0 {
		return invalidArgument("opcache: per-entry ageLimit must be > 0")
	}

	c.mu.Lock()
	invokeObjectCallback(&c.callbacks.willAdd, c, key, value)

	if old, exists := c.data[key]; exists {
		invokeObjectCallback(&c.callbacks.willRemove, c, key, old.value)
		c.detachLocked(old)
		invokeObjectCallback(&c.callbacks.didRemove, c, key, old.value)
	}

	now := time.Now()
	e := &entry{
		key:        key,
		value:      value,
		cost:       cost,
		createdAt:  now,
		lastAccess: now,
		ageLimit:   ageLimit,
	}
	e.recencyElem = c.recency.PushFront(e)
	heap.Push(&c.costHeap, e)
	c.data[key] = e
	c.totalCost += cost

	invokeObjectCallback(&c.callbacks.didAdd, c, key, value)

	costLimit, overshoot := c.overshootLocked()
	c.mu.Unlock()

	c.observers.Updated(c, key, value)

	if overshoot {
		// The "sync-overshoot-trim" flag lets a host opt a cache into
		// trimming inline on the calling goroutine instead of handing the
		// trim to the async worker pool — useful for hosts that would
		// rather pay Set's latency up front than risk a burst of
		// outstanding async trims under sustained overshoot.
		if c.featureEnabled("sync-overshoot-trim") {
			c.TrimToCostByDate(costLimit)
		} else if _, err := c.TrimToCostByDateAsync(costLimit, poq.PriorityDefault, nil); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("opcache: overshoot trim submission failed")
		}
	}
	return nil
}

// overshootLocked reports the current cost limit and whether totalCost
// exceeds it. Callers must hold c.mu.
func (c *Cache) overshootLocked() (limit int64, overshoot bool) {
	limit = c.costLimit
	return limit, limit > 0 && c.totalCost > limit
}

// Remove removes key, if present. A second Remove of the same key is a
// no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	e, ok := c.data[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	invokeObjectCallback(&c.callbacks.willRemove, c, key, e.value)
	c.detachLocked(e)
	invokeObjectCallback(&c.callbacks.didRemove, c, key, e.value)
	c.mu.Unlock()

	c.observers.Deleted(c, key)
}

// RemoveAll removes every entry.
func (c *Cache) RemoveAll() {
	c.mu.Lock()
	invokeCallback(&c.callbacks.willRemoveAll, c)

	for key, e := range c.data {
		invokeObjectCallback(&c.callbacks.willRemove, c, key, e.value)
		invokeObjectCallback(&c.callbacks.didRemove, c, key, e.value)
	}
	c.data = make(map[string]*entry)
	c.recency = list.New()
	c.costHeap = nil
	c.totalCost = 0

	invokeCallback(&c.callbacks.didRemoveAll, c)
	c.mu.Unlock()

	if c.disker != nil {
		_ = c.disker.DeleteAll()
	}
	c.observers.DeletedAll(c)
}

// Enumerate holds the lock for the entire traversal and invokes visitor
// for each live entry in an unspecified but stable order. visitor must
// not call back into the cache: doing so deadlocks.
func (c *Cache) Enumerate(visitor func(key string, value any)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.recency.Front(); e != nil; e = e.Next() {
		item := e.Value.(*entry)
		visitor(item.key, item.value)
	}
}

// Close stops the age-limit timer, the KCOR delivery queue, and, if this
// Cache owns its POQ worker pool (always the case for a Cache built by
// New), that queue too. Close does not wait for in-flight async operations; call
// WaitUntilAllFinished via the underlying queue accessor first if that is
// required. Close is safe to call more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.stopAgeTimer()
		if c.ownsQueue {
			c.queue.Close()
		}
		c.observerQueue.Close()
	})
}

// expiredLocked reports whether e is semantically absent under TTL-mode
// rules. Callers must hold c.mu.
func (c *Cache) expiredLocked(e *entry, now time.Time) bool {
	if !c.ttlCache {
		return false
	}
	// Reads c.ageLimit directly rather than through AgeLimit(), which
	// locks c.mu — this runs with c.mu already held by the caller.
	limit := e.effectiveAgeLimit(c.ageLimit)
	if limit <= 0 {
		return false
	}
	return e.age(now) > limit
}

// detachLocked removes e from the map and both indices. Callers must hold
// c.mu and have already invoked willRemove.
func (c *Cache) detachLocked(e *entry) {
	delete(c.data, e.key)
	c.recency.Remove(e.recencyElem)
	removeFromCostHeap(&c.costHeap, e)
	c.totalCost -= e.cost
}

// removeEntryLocked is detachLocked bracketed by the willRemove/didRemove
// callbacks, used by the lazy-expiration path in Get. Callers must hold
// c.mu.
func (c *Cache) removeEntryLocked(e *entry) {
	invokeObjectCallback(&c.callbacks.willRemove, c, e.key, e.value)
	c.detachLocked(e)
	invokeObjectCallback(&c.callbacks.didRemove, c, e.key, e.value)
}
