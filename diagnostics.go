package opcache

import "sync/atomic"

// featureEnabled asks c.featureLookup whether name is enabled, treating a
// nil lookup or a panicking implementation as disabled. A panic is
// recovered and logged rather than propagated: a misbehaving feature
// lookup must never be able to crash a cache operation that only wanted
// to know which code path to take.
func (c *Cache) featureEnabled(name string) (enabled bool) {
	if c.featureLookup == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().
				Str("feature", name).
				Interface("panic", r).
				Msg("opcache: feature flag lookup panicked, treating as disabled")
			enabled = false
		}
	}()
	return c.featureLookup.Enabled(name)
}

// invokeHostEventCallback runs the host-event hook stored at p (onMemoryPressure
// or onHostSuspend), recovering and logging any panic. Host-event hooks run
// on whatever goroutine the host's own signal/lifecycle handler uses; a
// panic there must not take the host process down.
func (c *Cache) invokeHostEventCallback(p *atomic.Pointer[Callback], event string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("event", event).
				Interface("panic", r).
				Msg("opcache: host-event callback panicked, recovered")
		}
	}()
	invokeCallback(p, c)
}
