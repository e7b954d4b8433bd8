package lofty

import (
	"io"

	"github.com/BSteffaniak/lofty-go/internal/probe"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// Probe drives format detection and parsing over an already-open reader,
// mirroring the Rust original's `Probe::new(reader).guess_file_type()?.read()?`
// chain: detection and parsing are separate steps, so a caller that
// already knows the format can skip straight to Read via SetFileType.
type Probe struct {
	r        io.ReaderAt
	size     int64
	path     string
	fileType types.FileType
}

// NewProbe wraps r (of the given size, read from path for error messages)
// for detection and parsing.
func NewProbe(r io.ReaderAt, size int64, path string) *Probe {
	return &Probe{r: r, size: size, path: path}
}

// GuessFileType runs spec §4.1's detection algorithm: magic-number match,
// ID3v2-prelude/junk recovery, and MPEG/AAC frame-sync disambiguation,
// falling back to any custom resolver registered via
// RegisterCustomResolver. maxJunkBytes bounds the recovery scan. Returns
// the Probe for chaining; the guessed type is available via FileType.
func (p *Probe) GuessFileType(maxJunkBytes int64) (*Probe, error) {
	ft, ok, err := probe.Guess(p.r, p.size, p.path, maxJunkBytes)
	if err != nil {
		return p, err
	}
	if !ok {
		return p, types.NewError(types.ErrUnknownFormat, p.path, "could not determine file type")
	}
	p.fileType = ft
	return p, nil
}

// SetFileType overrides detection, forcing Read to use ft directly. Use
// this when the caller already knows the format (e.g. from a file
// extension) and wants to skip the magic-number scan.
func (p *Probe) SetFileType(ft FileType) *Probe {
	p.fileType = ft
	return p
}

// FileType returns the type GuessFileType or SetFileType established, or
// Unknown if neither has been called yet.
func (p *Probe) FileType() FileType { return p.fileType }

// IntoInner returns the reader this Probe wraps, letting a caller chain
// hand-rolled post-processing over the same underlying stream.
func (p *Probe) IntoInner() io.ReaderAt { return p.r }

// Read parses the file assuming the type established by GuessFileType or
// SetFileType, returning ErrUnsupportedFormat if no container package is
// registered for it.
func (p *Probe) Read(opts ParseOptions) (*TaggedFile, error) {
	if p.fileType.IsUnknown() {
		if _, err := p.GuessFileType(opts.MaxJunkBytes); err != nil {
			return nil, err
		}
	}

	parser := registry.Get(p.fileType)
	if parser == nil {
		return nil, types.NewError(types.ErrUnsupportedFormat, p.path, "no parser registered for %s", p.fileType)
	}

	file, err := parser.Parse(p.r, p.size, p.path, opts)
	if err != nil {
		return nil, err
	}

	if opts.ParsingMode == types.Strict && len(file.Warnings) > 0 {
		return nil, types.NewError(types.ErrFakeData, p.path, "strict parsing failed: %s", file.Warnings[0].Message)
	}

	return file, nil
}
