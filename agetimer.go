package opcache

import "time"

/*
The age-limit timer implements the recurring active-expiration sweep,
generalized from a fixed-interval janitor (startJanitor/Stop) to a timer
that can be armed, disarmed, and re-armed at runtime as SetAgeLimit
changes:

  - ageLimit == 0: the timer is disarmed. The cache relies solely on
    lazy expiration (the TTL-mode check inside Get).
  - ageLimit > 0: a *time.Ticker with that period is running. On every
    tick, cutoff = now - ageLimit and TrimToDate(cutoff) runs, removing
    every entry whose relevant timestamp (last-access in non-TTL mode,
    creation in TTL mode) has fallen behind the cutoff — even if it is
    never accessed again to trigger lazy expiration.

The timer fires on its own goroutine, never on an application thread.
*/

// startAgeTimer (re)arms the recurring sweep with the given period,
// stopping any previously running timer first so SetAgeLimit can be
// called repeatedly without leaking tickers or goroutines.
func (c *Cache) startAgeTimer(period time.Duration) {
	c.stopAgeTimer()

	ticker := time.NewTicker(period)
	done := make(chan struct{})

	c.mu.Lock()
	c.ageTimer = ticker
	c.ageTimerDone = done
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				c.TrimToDate(time.Now().Add(-period))
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
}

// stopAgeTimer disarms the currently running age timer, if any. Safe to
// call when no timer is running.
func (c *Cache) stopAgeTimer() {
	c.mu.Lock()
	done := c.ageTimerDone
	c.ageTimer = nil
	c.ageTimerDone = nil
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
}
