package opcache

// HandleMemoryPressure is the entry point a host integration calls when
// the process receives a memory-pressure signal. The onMemoryPressure
// callback, if set, always runs first (panics recovered and logged via
// the configured logger); RemoveAll then runs only if
// removeAllOnMemoryPressure is enabled (the default), matching
// original_source/'s PINMemoryCache class doc's description of clearing
// itself "when the app receives a memory warning."
func (c *Cache) HandleMemoryPressure() {
	c.invokeHostEventCallback(&c.callbacks.onMemoryPressure, "memory_pressure")

	c.mu.Lock()
	remove := c.removeAllOnMemoryPressure
	c.mu.Unlock()

	if remove {
		c.RemoveAll()
	}
}

// HandleHostSuspend is the entry point a host integration calls when the
// process is about to be suspended or backgrounded. The onHostSuspend
// callback, if set, always runs first (panics recovered and logged); RemoveAll
// then runs only if removeAllOnHostSuspend is enabled (the default). If a
// BackgroundTask was configured via WithBackgroundTask, it brackets the
// RemoveAll so the host grants enough extra runtime to finish the clear
// before suspending, matching original_source/'s PINBackgroundTask
// start/end protocol around PINMemoryCache's own suspend-triggered clear.
func (c *Cache) HandleHostSuspend() {
	c.invokeHostEventCallback(&c.callbacks.onHostSuspend, "host_suspend")

	c.mu.Lock()
	remove := c.removeAllOnHostSuspend
	c.mu.Unlock()

	if !remove {
		return
	}

	if c.backgroundTask != nil {
		handle, err := c.backgroundTask.Start()
		if err == nil {
			defer c.backgroundTask.End(handle)
		} else {
			c.logger.Warn().Err(err).Msg("opcache: background task start failed, suspend clear unprotected")
		}
	}
	c.RemoveAll()
}
