package opcache

import "sync"

var shared = sync.OnceValue(func() *Cache {
	return New()
})

// Shared returns the process-wide default Cache, constructing it with
// default configuration on first use. Successive calls return the same
// instance, matching original_source/'s +[PINCache sharedCache] pattern.
func Shared() *Cache {
	return shared()
}
