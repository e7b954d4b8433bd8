// Package registry manages the built-in, compile-time dispatch table from
// FileType to container parser/writer, generalizing the teacher's
// Format-keyed registry to the open-ended FileType model (custom
// resolver-contributed file types are handled separately, by
// internal/resolve, which Probe consults as a fallback when this
// registry has no match).
package registry

import (
	"io"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

// FormatParser is the interface every container package implements and
// registers for its FileType(s) via Register.
type FormatParser interface {
	// Parse reads metadata and properties from r, returning a TaggedFile
	// with FileType/Tags/Properties/Pictures/Chapters/Warnings populated.
	// r is bounds-checked internally against size; path is used only for
	// error messages. opts controls property/picture reading, parsing
	// strictness, and the allocation limit.
	Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error)
}

// ArtworkExtractor is an optional interface for parsers whose artwork
// extraction is expensive enough to warrant lazy loading separate from
// Parse.
type ArtworkExtractor interface {
	ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error)
}

// FormatWriter is implemented by container packages that can rewrite
// their tag data back into a file (spec §4.3: MPEG, APE, WAV, and AIFF
// via the ID3v2 engine; FLAC, Ogg, and MP4 via their native tag blocks).
type FormatWriter interface {
	Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error
}

var (
	parsers = make(map[types.FileType]FormatParser)
	writers = make(map[types.FileType]FormatWriter)
)

// Register registers a parser for a file type. Called from container
// package init() functions.
func Register(ft types.FileType, p FormatParser) { parsers[ft] = p }

// Get returns the parser registered for ft, or nil.
func Get(ft types.FileType) FormatParser { return parsers[ft] }

// RegisterWriter registers a writer for a file type.
func RegisterWriter(ft types.FileType, w FormatWriter) { writers[ft] = w }

// GetWriter returns the writer registered for ft, or nil.
func GetWriter(ft types.FileType) FormatWriter { return writers[ft] }
