// Package featureflag provides the boolean feature-lookup collaborator
// used to gate experimental cache behaviors. It is read once at cache
// construction and cached, per the host contract — this package never
// watches for changes after that read.
package featureflag

import (
	"os"
	"strings"
)

// Lookup answers whether a named experimental feature is enabled.
// Implementations must be safe to call from any goroutine, since cache
// construction may happen off the main goroutine.
type Lookup interface {
	Enabled(name string) bool
}

// staticLookup is an immutable, construction-time snapshot of flag
// values, the Go-native analogue of the source ecosystem's
// "read-once-and-copied" configuration bitmask.
type staticLookup map[string]bool

// Static returns a Lookup backed by a fixed map, useful for tests and for
// hosts that resolve their own flags before constructing a cache.
func Static(flags map[string]bool) Lookup {
	snapshot := make(staticLookup, len(flags))
	for k, v := range flags {
		snapshot[k] = v
	}
	return snapshot
}

func (s staticLookup) Enabled(name string) bool { return s[name] }

// None is a Lookup with every feature disabled, the default when no
// collaborator is injected.
var None Lookup = staticLookup(nil)

type envLookup struct {
	prefix string
}

// FromEnv returns a Lookup that resolves NAME to the environment variable
// "<prefix>_<NAME>" (uppercased), treating "1", "t", "true", "yes" (case
// insensitive) as enabled and anything else — including unset — as
// disabled. The environment is read lazily per call; hosts that want the
// "read once" guarantee for their own lookups should wrap the result
// with Snapshot(lookup, names...).
func FromEnv(prefix string) Lookup {
	return envLookup{prefix: strings.ToUpper(prefix)}
}

func (e envLookup) Enabled(name string) bool {
	key := strings.ToUpper(e.prefix + "_" + name)
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	switch strings.ToLower(val) {
	case "1", "t", "true", "yes":
		return true
	default:
		return false
	}
}

// Snapshot reads every name from lookup once and returns an immutable
// Lookup over the result, giving callers of FromEnv a way to honor the
// "read once at construction" contract explicitly.
func Snapshot(lookup Lookup, names ...string) Lookup {
	flags := make(map[string]bool, len(names))
	for _, name := range names {
		flags[name] = lookup.Enabled(name)
	}
	return Static(flags)
}
