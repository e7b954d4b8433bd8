// Package wavpack implements the WavPack (.wv) container reader and
// writer (spec §4.2 "APE, Musepack, WavPack"), grounded on internal/apev2
// for the shared end-of-file tag footer and on the WavPack block header
// layout (a single fixed 32-byte header per block, documented in the
// format's own wavpack.h) for properties.
package wavpack

import (
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/apev2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

const wvMagic = "wvpk"

// flags bits within a WavPack block header's 32-bit flags field.
const (
	flagBytesStoredMask = 0x3
	flagMono            = 0x4
	flagFloat           = 0x80
	flagSampleRateLSB   = 23
	flagSampleRateMask  = 0xF << flagSampleRateLSB
)

// sampleRateTable is WavPack's fixed sample-rate index table; index 15
// means "not one of these, check for a rate extension block" which this
// reader doesn't walk for (rare in practice).
var sampleRateTable = [...]int{
	6000, 8000, 9600, 11025, 12000, 16000, 22050,
	24000, 32000, 44100, 48000, 64000, 88200, 96000, 192000,
}

type parser struct{}

func (parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "wvpk magic"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading wvpk magic: %v", err)
	}
	if string(magic) != wvMagic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid wvpk magic bytes")
	}

	file := &types.TaggedFile{FileType: types.WavPack}

	if opts.ReadProperties {
		if err := parseFirstBlockHeader(sr, size, &file.Properties); err != nil {
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

// parseFirstBlockHeader reads the 32-byte header of the file's first
// WavPack block: ckID/ckSize/version/track/index/totalSamples/
// blockIndex/blockSamples/flags/crc. totalSamples (valid only in the
// first block) plus sampleRate (decoded from the flags field's 4-bit
// index) give duration.
func parseFirstBlockHeader(sr *binutil.SafeReader, fileSize int64, props *types.FileProperties) error {
	if fileSize < 32 {
		return types.NewError(types.ErrSizeMismatch, sr.Path(), "file too small for a WavPack block header")
	}

	totalSamples, err := binutil.ReadLE[uint32](sr, 12, "total samples")
	if err != nil {
		return err
	}
	flags, err := binutil.ReadLE[uint32](sr, 24, "block flags")
	if err != nil {
		return err
	}

	bytesStored := int(flags & flagBytesStoredMask)
	props.BitDepth = (bytesStored + 1) * 8
	props.Channels = 2
	if flags&flagMono != 0 {
		props.Channels = 1
	}

	rateIndex := (flags & flagSampleRateMask) >> flagSampleRateLSB
	if int(rateIndex) < len(sampleRateTable) {
		props.SampleRate = sampleRateTable[rateIndex]
	}

	props.Codec = "WavPack"
	props.Lossless = flags&flagFloat == 0 // hybrid/lossy mode still reports via HYBRID_FLAG, not tracked here

	if totalSamples != 0xFFFFFFFF && props.SampleRate > 0 {
		props.Duration = time.Duration(float64(totalSamples) / float64(props.SampleRate) * float64(time.Second))
		if props.Duration > 0 {
			props.AudioBitrate = int(float64(fileSize*8) / props.Duration.Seconds() / 1000)
			props.OverallBitrate = props.AudioBitrate
		}
	}

	return nil
}

func init() {
	registry.Register(types.WavPack, &parser{})
	registry.RegisterWriter(types.WavPack, &writer{})
}
