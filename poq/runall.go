package poq

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll submits every fn in fns to q at priority and blocks until all of
// them have completed, returning the first error any of them reports. It
// is sugar over
// Submit/WaitUntilAllFinished for the common case of fanning a batch of
// independent work units through the queue and wanting a single
// aggregated result; it does not replace direct use of Submit for
// callers that need individual handles.
//
// Cancelling ctx stops RunAll from waiting further and returns ctx.Err(),
// but does not cancel work already admitted to q.
func RunAll(ctx context.Context, q *Queue, priority Priority, fns []func() error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		done := make(chan error, 1)
		if _, err := q.Submit(func() { done <- fn() }, priority); err != nil {
			return err
		}
		g.Go(func() error {
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}
