/*
Package opcache implements a thread-safe, in-memory key/value cache with:

  - Cost-based and age-based eviction, independently configurable
  - Optional cache-wide TTL semantics, with per-entry overrides
  - Lazy expiration (checked on Get) and active expiration (a recurring
    age-limit timer)
  - Lifecycle callbacks around every mutation (willAdd/didAdd/willRemove/
    didRemove/willRemoveAll/didRemoveAll)
  - A key-change observer registry, delivering updated/deleted/deletedAll
    notifications off the calling goroutine
  - Synchronous and asynchronous forms of every operation, the
    asynchronous forms scheduled through a bounded-concurrency priority
    queue (package poq) with three priority bands

# Architectural overview

opcache combines three data structures, mirroring the two orderings the
data model requires plus the primary index:

 1. Hash map (map[string]*entry) — O(1) key lookup.
 2. Doubly linked list (container/list) — recency ordering; the most
    recently accessed entries sit at the front, the oldest at the back,
    feeding date-based trim.
 3. A cost-ordered max-heap (container/heap) — feeds cost-first trim,
    picking the costliest entry without a full scan.

# Concurrency model

A single sync.Mutex protects entries, cost totals, and both indices.
Every lifecycle callback runs with that lock held — calling back into the
cache from one will deadlock. Completion callbacks on async operations
run after the lock is released.

# Expiration strategy

Non-TTL mode behaves like a classic LRU: Get touches an entry's recency
position, and active expiration never runs (entries are bounded only by
cost and explicit removal, unless ageLimit is set — in which case
date-based trim by last-access applies).

TTL mode makes every entry expire strictly by age: Get does not extend
lifetime, and an entry whose age exceeds its effective age limit is
semantically absent even before the age timer physically evicts it.
*/
package opcache
