package opcache

import "time"

// MemoryCaching captures Cache's core contract as an interface, the way
// original_source/'s PINPurgeableMemoryCache protocol lets callers depend
// on "a purgeable memory cache" rather than a concrete type. Cache
// satisfies this interface; callers that only need the contract (for
// example, test doubles, or code that wants to swap in a different cache
// implementation) should depend on MemoryCaching instead of *Cache.
type MemoryCaching interface {
	Contains(key string) bool
	Get(key string) (any, bool)
	Set(key string, value any, cost int64, ageLimit *time.Duration) error
	Remove(key string)
	RemoveAll()

	TrimToCost(target int64)
	TrimToCostByDate(target int64)
	TrimToDate(cutoff time.Time)

	Enumerate(visitor func(key string, value any))

	TotalCost() int64
	CostLimit() int64
	SetCostLimit(limit int64)
	AgeLimit() time.Duration
	SetAgeLimit(limit time.Duration)
	IsTTLCache() bool

	Close()
}

var _ MemoryCaching = (*Cache)(nil)
