// Package ape implements the Monkey's Audio (.ape) container reader and
// writer (spec §4.2 "APE, Musepack, WavPack": "a fixed-header descriptor
// giving sample rate, channels, and total frames; APEv2 tags sit at
// end-of-file"), grounded on internal/apev2 for the shared tag footer and
// on the teacher's parser-struct/registry.Register shape every other
// container package here follows.
package ape

import (
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/apev2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

const macMagic = "MAC "

type parser struct{}

// Parse reads the Monkey's Audio descriptor/header pair (present since
// format version 3.98) for properties, then looks for an APEv2 tag at
// end-of-file. Versions older than 3.98 used a simpler combined header
// this reader doesn't special-case; their absence just leaves Properties
// zeroed, same as any other BestAttempt-tolerated gap.
func (parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "MAC magic"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading MAC magic: %v", err)
	}
	if string(magic) != macMagic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid MAC magic bytes")
	}

	file := &types.TaggedFile{FileType: types.APE}

	if opts.ReadProperties {
		if err := parseProperties(sr, size, &file.Properties); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error()})
		}
	}

	result, ok, err := apev2.Find(sr, size, opts.AllocationLimit)
	if err != nil {
		file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: err.Error()})
	} else if ok {
		file.Tags = append(file.Tags, result.Tag)
		file.Pictures = append(file.Pictures, result.Tag.Pictures()...)
	}

	return file, nil
}

func (p parser) ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error) {
	sr := binutil.NewSafeReader(r, size, path)
	result, ok, err := apev2.Find(sr, size, opts.AllocationLimit)
	if err != nil || !ok {
		return nil, err
	}
	return result.Tag.Pictures(), nil
}

// parseProperties reads the version-3.98+ descriptor (52 bytes) and
// header (24 bytes) that follow the "MAC " magic and two version bytes,
// computing duration from total blocks and sample rate.
func parseProperties(sr *binutil.SafeReader, fileSize int64, props *types.FileProperties) error {
	version, err := binutil.ReadLE[uint16](sr, 4, "APE version")
	if err != nil {
		return err
	}

	if version < 3980 {
		return types.NewError(types.ErrFakeData, sr.Path(), "APE version %d predates the descriptor/header layout this reader supports", version)
	}

	descriptorBytes, err := binutil.ReadLE[uint32](sr, 8, "descriptor length")
	if err != nil {
		return err
	}

	// descriptorBytes is measured from the very start of the file (it
	// includes the "MAC " magic and version fields already read above),
	// so the header that follows starts exactly there.
	headerOffset := int64(descriptorBytes)
	compressionLevel, err := binutil.ReadLE[uint16](sr, headerOffset, "compression level")
	_ = compressionLevel
	if err != nil {
		return err
	}

	blocksPerFrame, err := binutil.ReadLE[uint32](sr, headerOffset+4, "blocks per frame")
	if err != nil {
		return err
	}
	finalFrameBlocks, err := binutil.ReadLE[uint32](sr, headerOffset+8, "final frame blocks")
	if err != nil {
		return err
	}
	totalFrames, err := binutil.ReadLE[uint32](sr, headerOffset+12, "total frames")
	if err != nil {
		return err
	}
	bitsPerSample, err := binutil.ReadLE[uint16](sr, headerOffset+16, "bits per sample")
	if err != nil {
		return err
	}
	channels, err := binutil.ReadLE[uint16](sr, headerOffset+18, "channels")
	if err != nil {
		return err
	}
	sampleRate, err := binutil.ReadLE[uint32](sr, headerOffset+20, "sample rate")
	if err != nil {
		return err
	}

	props.Channels = int(channels)
	props.BitDepth = int(bitsPerSample)
	props.SampleRate = int(sampleRate)
	props.Codec = "Monkey's Audio"
	props.Lossless = true

	if totalFrames > 0 && sampleRate > 0 {
		var totalBlocks uint64
		if totalFrames > 0 {
			totalBlocks = uint64(totalFrames-1)*uint64(blocksPerFrame) + uint64(finalFrameBlocks)
		}
		props.Duration = time.Duration(float64(totalBlocks) / float64(sampleRate) * float64(time.Second))
		if props.Duration > 0 {
			props.AudioBitrate = int(float64(fileSize*8) / props.Duration.Seconds() / 1000)
			props.OverallBitrate = props.AudioBitrate
		}
	}

	return nil
}

func init() {
	registry.Register(types.APE, &parser{})
	registry.RegisterWriter(types.APE, &writer{})
}
