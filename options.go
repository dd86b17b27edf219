package opcache

import (
	"time"

	"github.com/opcache/opcache/featureflag"
	"github.com/opcache/opcache/hostevent"
	"github.com/rs/zerolog"
)

// Option configures a Cache at construction time, generalizing a single
// WithCleanupInterval option into the full configuration surface:
//
//	c := New(
//	    WithCostLimit(10<<20),
//	    WithAgeLimit(time.Minute),
//	)
//
// Adding a new option never changes New's signature, keeping the
// constructor stable as the configuration surface grows. Every option
// listed here except WithName, WithTTLCache, WithMaxConcurrentOperations,
// WithLogger, WithFeatureFlagLookup, WithBackgroundTask and WithDisker
// seeds a field that remains mutable after construction via the matching
// Set* method on Cache.
type Option func(*config)

// config accumulates every option before New builds the Cache. Fields
// with a zero default (logger, featureLookup, backgroundTask, disker,
// every callback) fall back to documented no-op behavior.
type config struct {
	name                      string
	ttlCache                  bool
	maxConcurrentOperations   int
	costLimit                 int64
	ageLimit                  time.Duration
	removeAllOnMemoryPressure bool
	removeAllOnHostSuspend    bool
	logger                    zerolog.Logger
	featureLookup             featureflag.Lookup
	backgroundTask            hostevent.BackgroundTask
	disker                    Disker

	willAdd          ObjectCallback
	didAdd           ObjectCallback
	willRemove       ObjectCallback
	didRemove        ObjectCallback
	willRemoveAll    Callback
	didRemoveAll     Callback
	onMemoryPressure Callback
	onHostSuspend    Callback
}

func defaultConfig() config {
	return config{
		maxConcurrentOperations:   4,
		removeAllOnMemoryPressure: true,
		removeAllOnHostSuspend:    true,
		logger:                    zerolog.Nop(),
		featureLookup:             featureflag.None,
	}
}

// WithName sets a construction-time-only identifier, useful for
// distinguishing caches in logs when an application owns more than one.
func WithName(name string) Option { return func(c *config) { c.name = name } }

// WithTTLCache makes the cache behave as a TTL cache: once an entry is
// inserted, it lives only as long as its effective age limit, and
// accessing it does not extend that lifetime. Construction-time only.
func WithTTLCache(ttlCache bool) Option { return func(c *config) { c.ttlCache = ttlCache } }

// WithMaxConcurrentOperations sizes the POQ worker pool backing every
// async cache operation. KCOR notification delivery runs on its own
// dedicated single-worker queue and is not affected by this setting, so
// that per-key notification order always matches submission order.
// Construction-time only; defaults to 4 if unset or <= 0.
func WithMaxConcurrentOperations(n int) Option {
	return func(c *config) { c.maxConcurrentOperations = n }
}

// WithCostLimit sets the initial costLimit (0 disables cost trimming).
func WithCostLimit(limit int64) Option { return func(c *config) { c.costLimit = limit } }

// WithAgeLimit sets the initial cache-wide ageLimit (0 disables age
// trimming) and, if non-zero, arms the age timer on construction.
func WithAgeLimit(limit time.Duration) Option { return func(c *config) { c.ageLimit = limit } }

func WithRemoveAllOnMemoryPressure(enabled bool) Option {
	return func(c *config) { c.removeAllOnMemoryPressure = enabled }
}

func WithRemoveAllOnHostSuspend(enabled bool) Option {
	return func(c *config) { c.removeAllOnHostSuspend = enabled }
}

func WithLogger(logger zerolog.Logger) Option { return func(c *config) { c.logger = logger } }

func WithFeatureFlagLookup(lookup featureflag.Lookup) Option {
	return func(c *config) { c.featureLookup = lookup }
}

func WithBackgroundTask(task hostevent.BackgroundTask) Option {
	return func(c *config) { c.backgroundTask = task }
}

func WithDisker(d Disker) Option { return func(c *config) { c.disker = d } }

func WithWillAddCallback(cb ObjectCallback) Option    { return func(c *config) { c.willAdd = cb } }
func WithDidAddCallback(cb ObjectCallback) Option     { return func(c *config) { c.didAdd = cb } }
func WithWillRemoveCallback(cb ObjectCallback) Option { return func(c *config) { c.willRemove = cb } }
func WithDidRemoveCallback(cb ObjectCallback) Option  { return func(c *config) { c.didRemove = cb } }
func WithWillRemoveAllCallback(cb Callback) Option    { return func(c *config) { c.willRemoveAll = cb } }
func WithDidRemoveAllCallback(cb Callback) Option     { return func(c *config) { c.didRemoveAll = cb } }
func WithOnMemoryPressure(cb Callback) Option         { return func(c *config) { c.onMemoryPressure = cb } }
func WithOnHostSuspend(cb Callback) Option            { return func(c *config) { c.onHostSuspend = cb } }
