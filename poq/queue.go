// Package poq implements a bounded-concurrency priority operation
// scheduler: a fixed-size worker pool fed by three strict-priority FIFO
// bands (High, Default, Low), supporting runtime re-prioritization and
// cooperative cancellation.
//
// Dispatch is non-preemptive: a running closure is never interrupted by
// the arrival of a higher-priority one. Starvation of Low traffic under
// sustained High load is an accepted consequence of strict priority and
// is the caller's responsibility to avoid (bound submission rates, or
// lift Low work to Default).
package poq

import (
	"container/list"
	"sync"
)

// SubmitLimiter lets a caller bound admission independently of the
// worker pool's own capacity, e.g. to cap total queue depth. When set via
// WithSubmitLimiter and Allow returns false, Submit refuses the work unit
// with a ResourceExhausted error instead of enqueueing it. Queues without
// one configured refuse admission only after Close.
type SubmitLimiter interface {
	Allow() bool
}

// Option configures a Queue at construction time.
type Option func(*Queue)

// WithSubmitLimiter installs a SubmitLimiter consulted on every Submit.
func WithSubmitLimiter(l SubmitLimiter) Option {
	return func(q *Queue) { q.limiter = l }
}

// Queue is a bounded-concurrency priority scheduler. The zero value is
// not usable; construct with New.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	bands   [numPriorities]*list.List // FIFO per priority band
	records map[Handle]*record        // every queued or running record

	maxConcurrent int
	running       int
	closed        bool

	limiter SubmitLimiter
}

// New constructs a Queue backed by maxConcurrent worker goroutines.
// maxConcurrent must be at least 1.
func New(maxConcurrent int, opts ...Option) (*Queue, error) {
	if maxConcurrent < 1 {
		return nil, invalidArgument("poq: maxConcurrentOperations must be >= 1")
	}

	q := &Queue{
		records:       make(map[Handle]*record),
		maxConcurrent: maxConcurrent,
	}
	for i := range q.bands {
		q.bands[i] = list.New()
	}
	q.cond = sync.NewCond(&q.mu)

	for _, opt := range opts {
		opt(q)
	}

	for i := 0; i < maxConcurrent; i++ {
		go q.worker()
	}

	return q, nil
}

// Submit admits closure into the band for priority and returns a Handle
// that can later be passed to SetPriority or Cancel. Submission never
// blocks on execution; it only appends to the band and wakes a worker.
func (q *Queue) Submit(closure func(), priority Priority) (Handle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return Handle{}, &Error{Kind: ResourceExhausted, Msg: "poq: queue is closed"}
	}
	if q.limiter != nil && !q.limiter.Allow() {
		return Handle{}, &Error{Kind: ResourceExhausted, Msg: "poq: submission refused by limiter"}
	}

	rec := &record{
		handle:   newHandle(),
		priority: priority,
		closure:  closure,
	}
	rec.elem = q.bands[priority].PushBack(rec)
	q.records[rec.handle] = rec

	q.cond.Signal()
	return rec.handle, nil
}

// SetPriority moves the record referenced by handle to the tail of
// newPriority's band, if it is still queued. If the record is already
// running, completed, or unknown to this Queue, the call is a no-op.
func (q *Queue) SetPriority(handle Handle, newPriority Priority) {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.records[handle]
	if !ok || rec.elem == nil {
		return
	}

	q.bands[rec.priority].Remove(rec.elem)
	rec.priority = newPriority
	rec.elem = q.bands[newPriority].PushBack(rec)
	q.cond.Signal()
}

// Cancel sets the cancellation flag on the record referenced by handle.
// If still queued, it is removed eagerly and never runs. If already
// running, the flag is set but has no effect on the in-flight closure
// (dispatch is non-preemptive). Cancel is idempotent and safe to call on
// an unknown or already-completed handle.
func (q *Queue) Cancel(handle Handle) {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.records[handle]
	if !ok {
		return
	}
	rec.cancelled.Store(true)

	if rec.elem != nil {
		q.bands[rec.priority].Remove(rec.elem)
		rec.elem = nil
		delete(q.records, handle)
		q.cond.Broadcast()
	}
}

// CancelAll sets the cancellation flag on every currently queued record
// and empties all bands. Records already running are unaffected and will
// still complete.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, band := range q.bands {
		for e := band.Front(); e != nil; e = e.Next() {
			rec := e.Value.(*record)
			rec.cancelled.Store(true)
			delete(q.records, rec.handle)
		}
		band.Init()
	}
	q.cond.Broadcast()
}

// WaitUntilAllFinished blocks until every record queued or running at the
// moment of the call has completed (cancellation counts as completion).
// This is snapshot semantics, not drain semantics: work submitted after
// the call begins does not extend the wait, even if it completes before
// the snapshotted work does.
func (q *Queue) WaitUntilAllFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make(map[Handle]struct{}, len(q.records))
	for h := range q.records {
		snapshot[h] = struct{}{}
	}

	for len(snapshot) > 0 {
		q.cond.Wait()
		for h := range snapshot {
			if _, stillOutstanding := q.records[h]; !stillOutstanding {
				delete(snapshot, h)
			}
		}
	}
}

// Close stops accepting new submissions; already-admitted work continues
// to drain normally. Workers exit once their bands are empty and no more
// work can arrive. Close does not block for drain; call
// WaitUntilAllFinished first if that is required.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *Queue) worker() {
	for {
		q.mu.Lock()
		rec := q.popHighestPriorityLocked()
		for rec == nil && !q.closed {
			q.cond.Wait()
			rec = q.popHighestPriorityLocked()
		}
		if rec == nil {
			q.mu.Unlock()
			return
		}
		q.running++
		q.mu.Unlock()

		if !rec.cancelled.Load() {
			rec.closure()
		}

		q.mu.Lock()
		q.running--
		delete(q.records, rec.handle)
		q.mu.Unlock()
		q.cond.Broadcast()
	}
}

// popHighestPriorityLocked removes and returns the next record to run,
// strictly High before Default before Low, FIFO within a band. Callers
// must hold q.mu.
func (q *Queue) popHighestPriorityLocked() *record {
	for p := numPriorities - 1; p >= 0; p-- {
		band := q.bands[p]
		if e := band.Front(); e != nil {
			band.Remove(e)
			rec := e.Value.(*record)
			rec.elem = nil
			return rec
		}
	}
	return nil
}
