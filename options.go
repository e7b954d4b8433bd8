package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// ParsingMode controls how strictly a container parser reacts to
// malformed input.
type ParsingMode = types.ParsingMode

// Parsing modes, re-exported from internal/types.
const (
	Strict      = types.Strict
	BestAttempt = types.BestAttempt
	Relaxed     = types.Relaxed
)

// ParseOptions configures a single Open/ReadFrom call. The zero value is
// not valid on its own; start from DefaultParseOptions and chain the
// With* methods to customize it:
//
//	opts := lofty.DefaultParseOptions().
//		WithParsingMode(lofty.Strict).
//		WithReadPictures(false)
//
//	f, err := lofty.Open("song.flac", opts)
type ParseOptions = types.ParseOptions

// DefaultAllocationLimit is the allocation limit DefaultParseOptions
// applies.
const DefaultAllocationLimit = types.DefaultAllocationLimit

// DefaultMaxJunkBytes bounds Probe's junk-recovery scan.
const DefaultMaxJunkBytes = types.DefaultMaxJunkBytes

// DefaultParseOptions returns the options Open and ReadFrom use when the
// caller does not supply their own: properties and pictures are both
// read, parsing is BestAttempt, and the allocation and junk-scan limits
// are their package defaults.
func DefaultParseOptions() ParseOptions {
	return types.DefaultParseOptions()
}
