// Package kcor implements the key-change observer registry: a mapping
// from cache keys to sets of observers, delivering add/update/remove
// notifications without re-entering the notifying cache's lock.
package kcor

import (
	"sync"

	"github.com/opcache/opcache/poq"
)

// EventKind identifies what happened to a key.
type EventKind int

const (
	EventUpdated EventKind = iota
	EventDeleted
	EventDeletedAll
)

func (k EventKind) String() string {
	switch k {
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventDeletedAll:
		return "deletedAll"
	default:
		return "unknown"
	}
}

// Notification is the payload delivered to observers. Value is present
// only for EventUpdated. Cache is a back-reference to the notifying
// cache, typed any so this leaf package never imports its consumer.
type Notification struct {
	Kind  EventKind
	Value any
	Cache any
}

// Callback receives notifications for the key it was registered against.
type Callback func(Notification)

type registration struct {
	observer any
	callback Callback
}

// Registry maps keys to sets of registered observers. Registrations are
// explicit: the registry never prolongs an observer's lifetime beyond
// the host's own request, and (observer, key) registration is idempotent.
//
// Notifications are delivered as work units on deliveryQueue rather than
// synchronously on the notifier's goroutine, so Updated/Deleted/DeletedAll
// never run an observer callback while the calling cache still holds its
// own lock.
type Registry struct {
	mu            sync.Mutex
	byKey         map[string][]*registration
	deliveryQueue *poq.Queue
}

// New constructs a Registry that delivers notifications as Default-
// priority work units on deliveryQueue.
func New(deliveryQueue *poq.Queue) *Registry {
	return &Registry{
		byKey:         make(map[string][]*registration),
		deliveryQueue: deliveryQueue,
	}
}

// AddObserver registers callback to run whenever key changes. The same
// (observer, key) pair is idempotent: re-adding replaces the prior
// callback rather than accumulating a duplicate registration.
func (r *Registry) AddObserver(observer any, key string, callback Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.byKey[key]
	for _, reg := range regs {
		if reg.observer == observer {
			reg.callback = callback
			return
		}
	}
	r.byKey[key] = append(regs, &registration{observer: observer, callback: callback})
}

// RemoveObserver removes every registration for the (observer, key) pair.
func (r *Registry) RemoveObserver(observer any, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.byKey[key]
	out := regs[:0]
	for _, reg := range regs {
		if reg.observer != observer {
			out = append(out, reg)
		}
	}
	if len(out) == 0 {
		delete(r.byKey, key)
		return
	}
	r.byKey[key] = out
}

// Updated notifies every observer registered on key that value was added
// or changed.
func (r *Registry) Updated(cache any, key string, value any) {
	r.deliver(cache, key, Notification{Kind: EventUpdated, Value: value, Cache: cache})
}

// Deleted notifies every observer registered on key that it was removed.
func (r *Registry) Deleted(cache any, key string) {
	r.deliver(cache, key, Notification{Kind: EventDeleted, Cache: cache})
}

// DeletedAll notifies every registered observer, across every key,
// exactly once that the cache was cleared.
func (r *Registry) DeletedAll(cache any) {
	r.mu.Lock()
	seen := make(map[any]bool)
	var callbacks []Callback
	for _, regs := range r.byKey {
		for _, reg := range regs {
			if !seen[reg.observer] {
				seen[reg.observer] = true
				callbacks = append(callbacks, reg.callback)
			}
		}
	}
	r.mu.Unlock()

	notification := Notification{Kind: EventDeletedAll, Cache: cache}
	r.dispatch(callbacks, notification)
}

func (r *Registry) deliver(cache any, key string, notification Notification) {
	r.mu.Lock()
	regs := r.byKey[key]
	callbacks := make([]Callback, len(regs))
	for i, reg := range regs {
		callbacks[i] = reg.callback
	}
	r.mu.Unlock()

	r.dispatch(callbacks, notification)
}

// safeInvoke runs cb, recovering a panic so one misbehaving observer
// cannot take down the dispatch queue or other observers of the same
// event — the registry treats observers as best-effort and skips
// failures without propagating them.
func safeInvoke(cb Callback, notification Notification) {
	defer func() { _ = recover() }()
	cb(notification)
}

// dispatch fans callbacks out as individual POQ work units, or runs them
// inline if this Registry has no delivery queue (New was given nil).
// Either form keeps delivery off the notifier's own lock.
func (r *Registry) dispatch(callbacks []Callback, notification Notification) {
	for _, cb := range callbacks {
		if cb == nil {
			continue
		}
		cb := cb
		if r.deliveryQueue == nil {
			safeInvoke(cb, notification)
			continue
		}
		_, _ = r.deliveryQueue.Submit(func() { safeInvoke(cb, notification) }, poq.PriorityDefault)
	}
}
