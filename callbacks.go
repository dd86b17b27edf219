package opcache

import "sync/atomic"

// ObjectCallback is the shape of willAdd/didAdd/willRemove/didRemove: a
// lifecycle hook that observes a single key/value mutation. It runs with
// the cache's lock held — calling a synchronous cache method from inside
// one will deadlock.
type ObjectCallback func(cache *Cache, key string, value any)

// Callback is the shape of willRemoveAll/didRemoveAll/onMemoryPressure/
// onHostSuspend: a lifecycle or host-event hook that does not carry a
// single key/value.
type Callback func(cache *Cache)

// Each lifecycle/host-event callback is stored behind an atomic.Pointer
// so SetXCallback can replace it without taking the entry lock and
// without the possibility of a caller observing a half-written closure:
// owned closures replaced atomically, realized here as a lock-free atomic
// swap rather than a dedicated mutex, since Go's atomic.Pointer already
// gives that guarantee for a single pointer-sized field.
type callbacks struct {
	willAdd          atomic.Pointer[ObjectCallback]
	didAdd           atomic.Pointer[ObjectCallback]
	willRemove       atomic.Pointer[ObjectCallback]
	didRemove        atomic.Pointer[ObjectCallback]
	willRemoveAll    atomic.Pointer[Callback]
	didRemoveAll     atomic.Pointer[Callback]
	onMemoryPressure atomic.Pointer[Callback]
	onHostSuspend    atomic.Pointer[Callback]
}

func storeObjectCallback(p *atomic.Pointer[ObjectCallback], cb ObjectCallback) {
	if cb == nil {
		p.Store(nil)
		return
	}
	p.Store(&cb)
}

func storeCallback(p *atomic.Pointer[Callback], cb Callback) {
	if cb == nil {
		p.Store(nil)
		return
	}
	p.Store(&cb)
}

func invokeObjectCallback(p *atomic.Pointer[ObjectCallback], cache *Cache, key string, value any) {
	if cb := p.Load(); cb != nil {
		(*cb)(cache, key, value)
	}
}

func invokeCallback(p *atomic.Pointer[Callback], cache *Cache) {
	if cb := p.Load(); cb != nil {
		(*cb)(cache)
	}
}

// SetWillAddCallback replaces the willAdd lifecycle callback.
func (c *Cache) SetWillAddCallback(cb ObjectCallback) { storeObjectCallback(&c.callbacks.willAdd, cb) }

// SetDidAddCallback replaces the didAdd lifecycle callback.
func (c *Cache) SetDidAddCallback(cb ObjectCallback) { storeObjectCallback(&c.callbacks.didAdd, cb) }

// SetWillRemoveCallback replaces the willRemove lifecycle callback.
func (c *Cache) SetWillRemoveCallback(cb ObjectCallback) {
	storeObjectCallback(&c.callbacks.willRemove, cb)
}

// SetDidRemoveCallback replaces the didRemove lifecycle callback.
func (c *Cache) SetDidRemoveCallback(cb ObjectCallback) {
	storeObjectCallback(&c.callbacks.didRemove, cb)
}

// SetWillRemoveAllCallback replaces the willRemoveAll lifecycle callback.
func (c *Cache) SetWillRemoveAllCallback(cb Callback) { storeCallback(&c.callbacks.willRemoveAll, cb) }

// SetDidRemoveAllCallback replaces the didRemoveAll lifecycle callback.
func (c *Cache) SetDidRemoveAllCallback(cb Callback) { storeCallback(&c.callbacks.didRemoveAll, cb) }

// SetOnMemoryPressure replaces the memory-pressure host-event callback.
func (c *Cache) SetOnMemoryPressure(cb Callback) { storeCallback(&c.callbacks.onMemoryPressure, cb) }

// SetOnHostSuspend replaces the host-suspend host-event callback.
func (c *Cache) SetOnHostSuspend(cb Callback) { storeCallback(&c.callbacks.onHostSuspend, cb) }
