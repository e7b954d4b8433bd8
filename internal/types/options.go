package types

import "log/slog"

// ParsingMode controls how strictly a container parser reacts to
// malformed input (spec §4.6 "parsing mode").
//
//go:generate stringer -type=ParsingMode -linecomment
type ParsingMode int

const (
	// Strict aborts on the first corruption encountered.
	Strict ParsingMode = iota // Strict
	// BestAttempt recovers what it can, recording a Warning for each
	// fault instead of failing the whole parse. This is the default.
	BestAttempt // BestAttempt
	// Relaxed additionally tolerates violations BestAttempt would still
	// reject outright (e.g. frame IDs with invalid characters).
	Relaxed // Relaxed
)

// ParseOptions configures a single Probe.Read/ReadFrom call. The zero
// value is not valid on its own; use DefaultParseOptions for a complete,
// sensible default (mirrors the teacher's functional-options story while
// matching the Rust original's chained ParseOptions::new() builder).
type ParseOptions struct {
	ReadProperties    bool
	ReadPictures      bool
	ParsingMode       ParsingMode
	AllocationLimit   int64 // bytes; 0 disables the limit
	MaxJunkBytes      int64 // bytes of leading junk Probe will scan before giving up
	Logger            *slog.Logger
}

// DefaultAllocationLimit is applied by DefaultParseOptions; individual
// frame/chunk/block readers fall back to it whenever AllocationLimit is
// left at its zero value only via DefaultParseOptions, never implicitly,
// so a caller that explicitly sets 0 always gets an unbounded parse.
const DefaultAllocationLimit = 16 * 1024 * 1024

// DefaultMaxJunkBytes bounds Probe's junk-recovery scan (spec §4.1
// "MaybePrecededByJunk"), matching the original's MPEG sync-search cap.
const DefaultMaxJunkBytes = 1024

// DefaultParseOptions returns the options Probe and the facade functions
// use when the caller does not supply their own: properties and
// pictures are both read, parsing is BestAttempt, and the allocation and
// junk-scan limits are their package defaults.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		ReadProperties:  true,
		ReadPictures:    true,
		ParsingMode:     BestAttempt,
		AllocationLimit: DefaultAllocationLimit,
		MaxJunkBytes:    DefaultMaxJunkBytes,
	}
}

// WithReadProperties sets whether technical audio properties are parsed,
// returning the modified copy (chained-setter style).
func (o ParseOptions) WithReadProperties(v bool) ParseOptions {
	o.ReadProperties = v
	return o
}

// WithReadPictures sets whether embedded pictures are parsed.
func (o ParseOptions) WithReadPictures(v bool) ParseOptions {
	o.ReadPictures = v
	return o
}

// WithParsingMode sets how strictly a container parser reacts to
// malformed input.
func (o ParseOptions) WithParsingMode(m ParsingMode) ParseOptions {
	o.ParsingMode = m
	return o
}

// WithAllocationLimit sets the maximum number of bytes any single
// length-prefixed field (a chunk, atom, block, or frame body) may
// allocate. 0 disables the limit.
func (o ParseOptions) WithAllocationLimit(bytes int64) ParseOptions {
	o.AllocationLimit = bytes
	return o
}

// WithMaxJunkBytes sets how far Probe will scan past a leading ID3v2
// prelude or raw junk before giving up on finding a recognizable frame
// sync.
func (o ParseOptions) WithMaxJunkBytes(bytes int64) ParseOptions {
	o.MaxJunkBytes = bytes
	return o
}

// WithLogger attaches a logger that receives debug-level tracing of
// parse decisions (chunk/atom/frame walks, recovery attempts). No
// logging occurs when this is left nil.
func (o ParseOptions) WithLogger(l *slog.Logger) ParseOptions {
	o.Logger = l
	return o
}

// logDebug is a nil-safe helper so container parsers don't need to check
// opts.Logger != nil at every call site.
func (o ParseOptions) logDebug(msg string, args ...any) {
	if o.Logger == nil {
		return
	}
	o.Logger.Debug(msg, args...)
}

// LogDebug emits msg at slog.LevelDebug on the attached logger, a no-op
// if none was attached (spec's "Zero Surprises" default: silence unless
// asked for).
func (o ParseOptions) LogDebug(msg string, args ...any) { o.logDebug(msg, args...) }
