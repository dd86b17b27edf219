package poq

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsClosure(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	var ran atomic.Bool
	_, err = q.Submit(func() { ran.Store(true) }, PriorityDefault)
	require.NoError(t, err)

	q.WaitUntilAllFinished()
	assert.True(t, ran.Load())
}

func TestInvalidMaxConcurrent(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InvalidArgument, perr.Kind)
}

// TestScenario_S3_NonPreemptiveDispatchOrder: with max=1, submitting Low,
// Low, High in order runs them L1, H, L2 — the already-running L1 is
// never preempted by the later High.
func TestScenario_S3_NonPreemptiveDispatchOrder(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) func() { return func() { mu.Lock(); order = append(order, name); mu.Unlock() } }

	started := make(chan struct{})
	block := make(chan struct{})
	_, err = q.Submit(func() {
		close(started)
		<-block
		record("L1")()
	}, PriorityLow)
	require.NoError(t, err)

	<-started // L1 is now running and cannot be preempted

	_, err = q.Submit(record("L2"), PriorityLow)
	require.NoError(t, err)
	_, err = q.Submit(record("H"), PriorityHigh)
	require.NoError(t, err)

	close(block) // let L1 finish; H should then jump ahead of L2
	q.WaitUntilAllFinished()

	require.Equal(t, []string{"L1", "H", "L2"}, order)
}

// TestScenario_S4_CancelBeforeRun: with max=1, submitting three Default
// work units and cancelling the second before it runs results in #2 never
// running while #1 and #3 complete. A single worker guarantees #1 is the
// only record that can ever be dequeued before the cancel: #2 and #3 are
// provably still sitting in the band, in submission order, until #1's
// closure releases the gate.
func TestScenario_S4_CancelBeforeRun(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	started := make(chan struct{})
	gate := make(chan struct{})
	var ran [3]atomic.Bool

	_, err = q.Submit(func() { close(started); <-gate; ran[0].Store(true) }, PriorityDefault)
	require.NoError(t, err)
	h2, err := q.Submit(func() { ran[1].Store(true) }, PriorityDefault)
	require.NoError(t, err)
	_, err = q.Submit(func() { ran[2].Store(true) }, PriorityDefault)
	require.NoError(t, err)

	<-started // #1 is running; the sole worker cannot have touched #2 or #3 yet
	q.Cancel(h2)

	close(gate)
	q.WaitUntilAllFinished()

	assert.True(t, ran[0].Load())
	assert.False(t, ran[1].Load())
	assert.True(t, ran[2].Load())
}

func TestCancelIdempotent(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	block := make(chan struct{})
	h, err := q.Submit(func() { <-block }, PriorityDefault)
	require.NoError(t, err)
	close(block)
	q.WaitUntilAllFinished()

	q.Cancel(h)
	q.Cancel(h) // idempotent, must not panic
}

func TestSetPriorityNoOpWhenRunning(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	started := make(chan struct{})
	block := make(chan struct{})
	h, err := q.Submit(func() { close(started); <-block }, PriorityDefault)
	require.NoError(t, err)
	<-started

	q.SetPriority(h, PriorityHigh) // no-op: already running
	close(block)
	q.WaitUntilAllFinished()
}

func TestCancelledHandleNeverExecutes(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	// occupy the only worker so the next submission stays queued
	block := make(chan struct{})
	_, err = q.Submit(func() { <-block }, PriorityDefault)
	require.NoError(t, err)

	var ran atomic.Bool
	h, err := q.Submit(func() { ran.Store(true) }, PriorityDefault)
	require.NoError(t, err)
	q.Cancel(h)

	close(block)
	q.WaitUntilAllFinished()
	assert.False(t, ran.Load())
}

func TestSubmitAfterCloseIsResourceExhausted(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	q.Close()

	_, err = q.Submit(func() {}, PriorityDefault)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ResourceExhausted, perr.Kind)
}

type rejectAllLimiter struct{}

func (rejectAllLimiter) Allow() bool { return false }

func TestSubmitLimiterRejection(t *testing.T) {
	q, err := New(1, WithSubmitLimiter(rejectAllLimiter{}))
	require.NoError(t, err)
	defer q.Close()

	_, err = q.Submit(func() {}, PriorityDefault)
	require.ErrorIs(t, err, ErrResourceExhausted)
}

func TestWaitUntilAllFinishedSnapshotDoesNotWaitForLateSubmissions(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	defer q.Close()

	gate := make(chan struct{})
	_, err = q.Submit(func() { <-gate }, PriorityDefault)
	require.NoError(t, err)

	waitDone := make(chan struct{})
	go func() {
		q.WaitUntilAllFinished()
		close(waitDone)
	}()

	// Give the background wait time to take its snapshot (which, with the
	// only submission so far blocked on gate, can only contain that one
	// record) before submitting work meant to arrive "late".
	time.Sleep(20 * time.Millisecond)

	var late atomic.Bool
	_, err = q.Submit(func() { time.Sleep(20 * time.Millisecond); late.Store(true) }, PriorityDefault)
	require.NoError(t, err)

	close(gate)
	<-waitDone
	assert.False(t, late.Load(), "snapshot semantics: a late submission must not extend an in-flight wait")
}
