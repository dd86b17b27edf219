package kcor

import (
	"sync"
	"testing"
	"time"

	"github.com/opcache/opcache/poq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *poq.Queue) {
	t.Helper()
	q, err := poq.New(2)
	require.NoError(t, err)
	t.Cleanup(q.Close)
	return New(q), q
}

// TestScenario_S5_UpdatedThenDeletedOrdering: an observer on "k" sees one
// updated then one deleted, in that order. The delivery queue here is
// built with concurrency 1 — ordering across submissions is only
// guaranteed end-to-end when a single worker drains the band; with more
// than one worker, submission order and completion order can diverge.
func TestScenario_S5_UpdatedThenDeletedOrdering(t *testing.T) {
	q, err := poq.New(1)
	require.NoError(t, err)
	t.Cleanup(q.Close)
	r := New(q)

	var mu sync.Mutex
	var kinds []EventKind
	r.AddObserver("observer-1", "k", func(n Notification) {
		mu.Lock()
		kinds = append(kinds, n.Kind)
		mu.Unlock()
	})

	r.Updated("cache", "k", "v")
	r.Deleted("cache", "k")
	q.WaitUntilAllFinished()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []EventKind{EventUpdated, EventDeleted}, kinds)
}

func TestAddObserverIdempotent(t *testing.T) {
	r, q := newTestRegistry(t)

	var calls int
	var mu sync.Mutex
	cb := func(Notification) { mu.Lock(); calls++; mu.Unlock() }

	r.AddObserver("obs", "k", cb)
	r.AddObserver("obs", "k", cb) // same pair: replaces, does not duplicate

	r.Updated("cache", "k", 1)
	q.WaitUntilAllFinished()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestRemoveObserver(t *testing.T) {
	r, q := newTestRegistry(t)

	called := false
	r.AddObserver("obs", "k", func(Notification) { called = true })
	r.RemoveObserver("obs", "k")

	r.Updated("cache", "k", 1)
	q.WaitUntilAllFinished()

	assert.False(t, called)
}

func TestDeletedAllNotifiesEachObserverExactlyOnce(t *testing.T) {
	r, q := newTestRegistry(t)

	var mu sync.Mutex
	counts := map[string]int{}
	observe := func(name string) Callback {
		return func(Notification) { mu.Lock(); counts[name]++; mu.Unlock() }
	}

	r.AddObserver("obs-a", "k1", observe("obs-a"))
	r.AddObserver("obs-a", "k2", observe("obs-a")) // same observer, two keys
	r.AddObserver("obs-b", "k2", observe("obs-b"))

	r.DeletedAll("cache")
	q.WaitUntilAllFinished()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, counts["obs-a"])
	assert.Equal(t, 1, counts["obs-b"])
}

func TestPanickingObserverIsSkippedWithoutError(t *testing.T) {
	r, q := newTestRegistry(t)

	r.AddObserver("bad", "k", func(Notification) { panic("boom") })

	var ok bool
	r.AddObserver("good", "k", func(Notification) { ok = true })

	r.Updated("cache", "k", 1)
	q.WaitUntilAllFinished()
	time.Sleep(5 * time.Millisecond)

	assert.True(t, ok)
}
