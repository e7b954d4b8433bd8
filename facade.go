package lofty

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"

	// Register built-in container parsers/writers.
	_ "github.com/BSteffaniak/lofty-go/internal/container/aac"
	_ "github.com/BSteffaniak/lofty-go/internal/container/aiff"
	_ "github.com/BSteffaniak/lofty-go/internal/container/ape"
	_ "github.com/BSteffaniak/lofty-go/internal/container/flac"
	_ "github.com/BSteffaniak/lofty-go/internal/container/mp4"
	_ "github.com/BSteffaniak/lofty-go/internal/container/mpc"
	_ "github.com/BSteffaniak/lofty-go/internal/container/mpeg"
	_ "github.com/BSteffaniak/lofty-go/internal/container/ogg"
	_ "github.com/BSteffaniak/lofty-go/internal/container/wav"
	_ "github.com/BSteffaniak/lofty-go/internal/container/wavpack"
)

// File is an opened audio file: its parsed metadata plus enough state
// (an open handle onto the original path) to Save changes back.
//
// File retaining the original reader is what separates it from
// ReadFrom/ReadFromPath's plain *TaggedFile: only a File can Save.
type File struct {
	TaggedFile

	Path string
	Size int64

	reader   io.ReaderAt
	closer   io.Closer
	opts     ParseOptions
	artwork  []Picture
	artworkLoaded bool
}

// Open opens an audio file and parses its metadata, keeping the file
// handle open so Save/SaveAs can later rewrite it in place.
//
// Open performs lazy artwork loading: pictures embedded in the container
// itself are parsed eagerly (they're cheap, usually just a handful of
// bytes of atom/chunk/block framing), but a format whose
// ArtworkExtractor does real decoding work defers that until
// ExtractArtwork is called. Callers that want everything preloaded
// should set opts.ReadPictures.
//
// If the file is corrupted, Open may return a partial File with
// warnings rather than an error, unless opts.ParsingMode is Strict.
// Check File.Warnings for details.
func Open(path string, opts ...ParseOptions) (*File, error) {
	o := resolveOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := stat.Size()

	tagged, err := NewProbe(f, size, path).Read(o)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{
		TaggedFile: *tagged,
		Path:       path,
		Size:       size,
		reader:     f,
		closer:     f,
		opts:       o,
	}, nil
}

// ReadFrom parses metadata from an already-open io.ReaderAt without
// retaining it; the returned *TaggedFile cannot be passed to Save.
// Useful for parsing from memory, an embedded filesystem, or any source
// that isn't a plain *os.File.
func ReadFrom(r io.ReaderAt, size int64, path string, opts ...ParseOptions) (*TaggedFile, error) {
	return NewProbe(r, size, path).Read(resolveOptions(opts))
}

// ReadFromPath opens path, parses it, and closes it immediately,
// returning only the parsed metadata. Use Open instead if you intend to
// Save changes back.
func ReadFromPath(path string, opts ...ParseOptions) (*TaggedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return ReadFrom(f, stat.Size(), path, opts...)
}

func resolveOptions(opts []ParseOptions) ParseOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return DefaultParseOptions()
}

// Close releases the file handle Open retained. After Close, the File
// should not be used (ExtractArtwork and Save both need the handle).
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// ExtractArtwork returns the file's embedded pictures, including any
// that required a dedicated, possibly expensive extraction pass beyond
// what Open already populated into TaggedFile.Pictures. Results are
// cached after the first call.
func (f *File) ExtractArtwork() ([]Picture, error) {
	if f.artworkLoaded {
		return f.artwork, nil
	}

	all := f.AllPictures()

	if extractor, ok := registry.Get(f.FileType).(registry.ArtworkExtractor); ok {
		extra, err := extractor.ExtractArtwork(f.reader, f.Size, f.Path, f.opts)
		if err != nil {
			return nil, fmt.Errorf("extract artwork: %w", err)
		}
		all = mergePictures(all, extra)
	}

	f.artwork = all
	f.artworkLoaded = true
	return f.artwork, nil
}

// mergePictures appends pics not already present in base, judged by
// byte-identical image data (the cheapest correct de-duplication key
// across formats that populate Pictures eagerly and formats whose
// ArtworkExtractor re-derives the same pictures on demand).
func mergePictures(base, pics []Picture) []Picture {
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		seen[string(p.Data)] = true
	}
	out := base
	for _, p := range pics {
		if seen[string(p.Data)] {
			continue
		}
		out = append(out, p)
		seen[string(p.Data)] = true
	}
	return out
}

// OpenMany opens multiple audio files concurrently, parsing up to
// runtime.NumCPU() at a time via errgroup. Results are returned in the
// same order as paths. If any file fails to open, every successfully
// opened File is closed before returning the error.
func OpenMany(ctx context.Context, paths ...string) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			file, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, file := range results {
			if file != nil {
				file.Close()
			}
		}
		return nil, err
	}

	return results, nil
}

// Save writes modified metadata back to the original path. Atomic: it
// writes to a temp file in the same directory, then renames over the
// original, so a failure partway through never corrupts it.
func (f *File) Save() error {
	return f.SaveAs(f.Path)
}

// SaveAs writes the file's current metadata, merged over the original
// audio data, to outputPath. Returns an Error with ErrUnsupportedTag if
// no writer is registered for this file's FileType.
func (f *File) SaveAs(outputPath string) error {
	writer := registry.GetWriter(f.FileType)
	if writer == nil {
		return types.NewError(types.ErrUnsupportedTag, outputPath, "no writer registered for %s", f.FileType)
	}
	if f.reader == nil {
		return fmt.Errorf("file not open: reader is nil")
	}

	outputDir := filepath.Dir(outputPath)
	tempFile, err := os.CreateTemp(outputDir, ".lofty-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := writer.Write(tempFile, &f.TaggedFile, f.reader, f.Size); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}
	success = true
	return nil
}
