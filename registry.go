package kplex

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// OpenFunc is supplied by an adapter package to construct one or more
// endpoints from a Descriptor. It returns either a single endpoint
// (whose Direction may be DirBoth, in which case the Router splits it)
// or a pre-split two-endpoint chain (already carrying IN/OUT
// directions and mutual Pair references).
type OpenFunc func(d *Descriptor) ([]*Endpoint, error)

var (
	registryMu sync.Mutex
	registry   = map[string]OpenFunc{}
)

// Register associates an adapter type name (a config section name
// such as "serial" or "tcp") with the function used to open it.
// Adapter packages call this from an init() function; registering the
// same name twice is a programming error and panics, the same as
// registering a duplicate flag would.
func Register(typ string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[typ]; exists {
		panic("kplex: adapter type already registered: " + typ)
	}
	registry[typ] = open
}

// Lookup returns the OpenFunc registered for typ, if any.
func Lookup(typ string) (OpenFunc, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()

	open, ok := registry[typ]
	return open, ok
}

// RegisteredTypes returns the sorted list of currently registered
// adapter type names, for diagnostics.
func RegisteredTypes() []string {
	registryMu.Lock()
	defer registryMu.Unlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// openDescriptor looks up and invokes the adapter registered for
// d.Type, wrapping an unknown-type lookup failure with the registered
// type names for a useful startup error.
func openDescriptor(d *Descriptor) ([]*Endpoint, error) {
	open, ok := Lookup(d.Type)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEndpointType, "%q (known types: %v)", d.Type, RegisteredTypes())
	}
	return open(d)
}
