// Package resolve implements the custom file-type resolver registry
// (spec §4.4): a process-wide, caller-extensible table consulted after
// the built-in probe fails to identify a format, generalizing the
// teacher's internal/registry (compile-time, built-in-only dispatch)
// with a second, runtime-populated table keyed by an opaque resolver id.
package resolve

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

// Resolver inspects the first few bytes of a stream and, if it recognizes
// the format, returns the FileType it believes this is. Returning
// (types.Unknown, false) defers to the next registered resolver (and
// ultimately to "no match").
type Resolver interface {
	Resolve(header []byte, size int64) (types.FileType, bool)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(header []byte, size int64) (types.FileType, bool)

func (f ResolverFunc) Resolve(header []byte, size int64) (types.FileType, bool) { return f(header, size) }

type registryEntry struct {
	id       string
	resolver Resolver
}

var (
	mu      sync.Mutex
	entries []registryEntry
	group   singleflight.Group
)

// Register adds a custom resolver under id, replacing any resolver
// previously registered under the same id. Safe for concurrent use; the
// singleflight group collapses concurrent first-registration races from
// package init()s in different goroutines down to one winner without
// doing any I/O while the registry mutex is held.
func Register(id string, r Resolver) {
	_, _, _ = group.Do(id, func() (interface{}, error) {
		mu.Lock()
		defer mu.Unlock()
		for i, e := range entries {
			if e.id == id {
				entries[i].resolver = r
				return nil, nil
			}
		}
		entries = append(entries, registryEntry{id: id, resolver: r})
		return nil, nil
	})
}

// Unregister removes the resolver registered under id, if any.
func Unregister(id string) {
	mu.Lock()
	defer mu.Unlock()
	for i, e := range entries {
		if e.id == id {
			entries = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Resolve consults every registered resolver, in registration order,
// against the given header bytes. Returns the first match.
//
// The registry is cloned under the lock before any resolver runs, so a
// resolver that calls Register/Unregister from inside Resolve (unusual,
// but not forbidden) can't deadlock on mu.
func Resolve(header []byte, size int64) (types.FileType, bool) {
	mu.Lock()
	snapshot := make([]registryEntry, len(entries))
	copy(snapshot, entries)
	mu.Unlock()

	for _, e := range snapshot {
		if ft, ok := e.resolver.Resolve(header, size); ok {
			return ft, true
		}
	}
	return types.Unknown, false
}

// HeaderSniffLen is how many leading bytes Probe hands to Resolve.
const HeaderSniffLen = 36
