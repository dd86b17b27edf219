package opcache

import (
	"time"

	"github.com/opcache/opcache/poq"
)

// GetCompletion receives the result of an async Get.
type GetCompletion func(cache *Cache, key string, value any, found bool)

// ContainsCompletion receives the result of an async Contains.
type ContainsCompletion func(cache *Cache, key string, found bool)

// VoidCompletion receives the completion of an async Set/Remove/
// RemoveAll/trim operation, none of which produce a result beyond "done".
type VoidCompletion func(cache *Cache)

/*
Every *Async method here submits a closure to the owned poq.Queue at the
given priority and returns immediately with the poq.Handle (so callers can
SetPriority or Cancel it) and any submission error (ResourceExhausted if
the queue refuses admission). The closure performs exactly the
corresponding synchronous operation — acquiring c.mu, mutating state,
running lifecycle callbacks under the lock — then invokes completion, if
non-nil, after the lock has been released. A nil completion is fine; the
operation still runs.

A non-nil submission error is also logged at Warn level via the
configured logger before being returned, since a rejected submission
means the requested operation silently never runs unless the caller
checks the error.
*/

func (c *Cache) logSubmitError(op, key string, err error) {
	if err == nil {
		return
	}
	ev := c.logger.Warn().Str("op", op).Err(err)
	if key != "" {
		ev = ev.Str("key", key)
	}
	ev.Msg("opcache: async submission rejected")
}

// ContainsAsync is the asynchronous form of Contains.
func (c *Cache) ContainsAsync(key string, priority poq.Priority, completion ContainsCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		found := c.Contains(key)
		if completion != nil {
			completion(c, key, found)
		}
	}, priority)
	c.logSubmitError("ContainsAsync", key, err)
	return h, err
}

// GetAsync is the asynchronous form of Get.
func (c *Cache) GetAsync(key string, priority poq.Priority, completion GetCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		value, found := c.Get(key)
		if completion != nil {
			completion(c, key, value, found)
		}
	}, priority)
	c.logSubmitError("GetAsync", key, err)
	return h, err
}

// SetAsync is the asynchronous form of Set. A rejected per-entry
// ageLimit is not reported: Set's error is discarded and completion is
// still called with no indication of failure, so validate ageLimit
// synchronously up front if the caller needs to observe that error.
func (c *Cache) SetAsync(key string, value any, cost int64, ageLimit *time.Duration, priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		_ = c.Set(key, value, cost, ageLimit)
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("SetAsync", key, err)
	return h, err
}

// RemoveAsync is the asynchronous form of Remove.
func (c *Cache) RemoveAsync(key string, priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		c.Remove(key)
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("RemoveAsync", key, err)
	return h, err
}

// RemoveAllAsync is the asynchronous form of RemoveAll.
func (c *Cache) RemoveAllAsync(priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		c.RemoveAll()
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("RemoveAllAsync", "", err)
	return h, err
}

// TrimToCostAsync is the asynchronous form of TrimToCost.
func (c *Cache) TrimToCostAsync(target int64, priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		c.TrimToCost(target)
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("TrimToCostAsync", "", err)
	return h, err
}

// TrimToCostByDateAsync is the asynchronous form of TrimToCostByDate.
func (c *Cache) TrimToCostByDateAsync(target int64, priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		c.TrimToCostByDate(target)
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("TrimToCostByDateAsync", "", err)
	return h, err
}

// TrimToDateAsync is the asynchronous form of TrimToDate.
func (c *Cache) TrimToDateAsync(cutoff time.Time, priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		c.TrimToDate(cutoff)
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("TrimToDateAsync", "", err)
	return h, err
}

// EnumerateAsync runs the same traversal as Enumerate on a POQ worker.
// visitor must not call back into the cache, exactly as for Enumerate.
func (c *Cache) EnumerateAsync(visitor func(key string, value any), priority poq.Priority, completion VoidCompletion) (poq.Handle, error) {
	h, err := c.queue.Submit(func() {
		c.Enumerate(visitor)
		if completion != nil {
			completion(c)
		}
	}, priority)
	c.logSubmitError("EnumerateAsync", "", err)
	return h, err
}

// Queue exposes the owned POQ worker pool so callers can, for example,
// call WaitUntilAllFinished to block until all outstanding async cache
// operations complete.
func (c *Cache) Queue() *poq.Queue { return c.queue }
