package lofty

import "github.com/BSteffaniak/lofty-go/internal/resolve"

// Resolver inspects the first few bytes of a stream and, if it
// recognizes the format, returns the FileType it believes this is.
// Returning (Unknown, false) defers to the next registered resolver.
type Resolver = resolve.Resolver

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc = resolve.ResolverFunc

// RegisterCustomResolver adds a custom resolver under id, consulted
// after the built-in probe fails to recognize a format. Registering
// again under the same id replaces the previous resolver.
func RegisterCustomResolver(id string, r Resolver) {
	resolve.Register(id, r)
}

// UnregisterCustomResolver removes the resolver registered under id, if
// any.
func UnregisterCustomResolver(id string) {
	resolve.Unregister(id)
}
