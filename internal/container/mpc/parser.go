// Package mpc implements the Musepack (.mpc) container reader and writer
// (spec §4.2 "APE, Musepack, WavPack"), grounded on internal/apev2 for
// the shared end-of-file tag footer (Musepack, like APE and WavPack,
// keeps no tag data inline and relies entirely on a trailing APEv2 block)
// and on Musepack's own public stream-header documentation for
// properties: SV8's "MPCK" packet container with its "SH" (StreamHeader)
// packet, and SV7's simpler fixed header starting "MP+".
package mpc

import (
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/apev2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

const (
	sv8Magic = "MPCK"
	sv7Magic = "MP+"
)

// mpcSampleRates is the fixed 4-entry table both SV7 and SV8 select a
// stream's sample rate from by a 2-bit index.
var mpcSampleRates = [4]int{44100, 48000, 37800, 32000}

type parser struct{}

func (parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "MPC magic"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading MPC magic: %v", err)
	}

	file := &types.TaggedFile{FileType: types.MPC}

	switch {
	case string(magic) == sv8Magic:
		if opts.ReadProperties {
			if err := parseSV8StreamHeader(sr, size, &file.Properties); err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error()})
			}
		}
	case string(magic[:3]) == sv7Magic:
		if opts.ReadProperties {
			if err := parseSV7Header(sr, size, &file.Properties); err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error()})
			}
		}
	default:
		return nil, types.NewError(types.ErrFakeData, path, "invalid Musepack magic bytes")
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

// readVarSize decodes a Musepack variable-length quantity: 7 data bits
// per byte, MSB first, continuation signaled by the top bit (the same
// discipline internal/container/mp4 uses for ESDS descriptor sizes).
func readVarSize(sr *binutil.SafeReader, offset int64) (value uint64, consumed int64, err error) {
	for {
		b, rerr := binutil.ReadLE[uint8](sr, offset+consumed, "variable-length size byte")
		if rerr != nil {
			return 0, 0, rerr
		}
		consumed++
		value = value<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			return value, consumed, nil
		}
		if consumed > 10 {
			return 0, 0, types.NewError(types.ErrSizeMismatch, sr.Path(), "variable-length size field too long")
		}
	}
}

// parseSV8StreamHeader walks SV8's packet list (2-byte key + a
// variable-length total-packet-size quantity) looking for "SH"
// (StreamHeader), which carries a CRC, stream version, total sample
// count, beginning-silence sample count, and a packed bitfield with the
// sample-rate index, max used sub-bands, and channel count.
func parseSV8StreamHeader(sr *binutil.SafeReader, fileSize int64, props *types.FileProperties) error {
	pos := int64(4)

	for pos+2 < fileSize {
		key := make([]byte, 2)
		if err := sr.ReadAt(key, pos, "packet key"); err != nil {
			return err
		}
		packetSize, sizeLen, err := readVarSize(sr, pos+2)
		if err != nil {
			return err
		}
		payloadStart := pos + 2 + sizeLen
		payloadEnd := pos + int64(packetSize)
		if payloadEnd <= payloadStart || payloadEnd > fileSize {
			return types.NewError(types.ErrSizeMismatch, sr.Path(), "SV8 packet %q declares an invalid size", key)
		}

		if string(key) == "SH" {
			return parseSH(sr, payloadStart, props)
		}
		if string(key) == "SE" {
			break // stream end, no SH packet found
		}

		pos = payloadEnd
	}

	return types.NewError(types.ErrFakeData, sr.Path(), "no SH (StreamHeader) packet found")
}

func parseSH(sr *binutil.SafeReader, offset int64, props *types.FileProperties) error {
	// 4 bytes CRC + 1 byte stream version, both unused for properties.
	pos := offset + 5

	sampleCount, n, err := readVarSize(sr, pos)
	if err != nil {
		return err
	}
	pos += n

	_, n, err = readVarSize(sr, pos) // beginning silence samples
	if err != nil {
		return err
	}
	pos += n

	packed, err := binutil.ReadBE[uint16](sr, pos, "SV8 stream header bitfield")
	if err != nil {
		return err
	}

	sampleRateIndex := (packed >> 13) & 0x3
	channels := (packed >> 4) & 0xF

	props.SampleRate = mpcSampleRates[sampleRateIndex]
	props.Channels = int(channels) + 1
	props.Codec = "Musepack SV8"
	props.Lossless = false
	props.BitDepth = 16

	if sampleCount > 0 && props.SampleRate > 0 {
		props.Duration = time.Duration(float64(sampleCount) / float64(props.SampleRate) * float64(time.Second))
	}

	return nil
}

// parseSV7Header reads the legacy fixed SV7 header: "MP+" + a flags
// byte (low nibble carries the stream version), a little-endian frame
// count, and a bitfield word carrying the sample-rate index.
func parseSV7Header(sr *binutil.SafeReader, fileSize int64, props *types.FileProperties) error {
	if fileSize < 12 {
		return types.NewError(types.ErrSizeMismatch, sr.Path(), "file too small for an SV7 header")
	}

	frameCount, err := binutil.ReadLE[uint32](sr, 4, "SV7 frame count")
	if err != nil {
		return err
	}
	flags, err := binutil.ReadLE[uint16](sr, 8, "SV7 flags word")
	if err != nil {
		return err
	}

	sampleRateIndex := (flags >> 13) & 0x3
	props.SampleRate = mpcSampleRates[sampleRateIndex]
	props.Channels = 2 // SV7 streams outside joint/mid-side mono are effectively always stereo in practice
	props.Codec = "Musepack SV7"
	props.Lossless = false
	props.BitDepth = 16

	const samplesPerFrame = 1152
	if props.SampleRate > 0 {
		totalSamples := uint64(frameCount) * samplesPerFrame
		props.Duration = time.Duration(float64(totalSamples) / float64(props.SampleRate) * float64(time.Second))
	}

	return nil
}

func init() {
	registry.Register(types.MPC, &parser{})
	registry.RegisterWriter(types.MPC, &writer{})
}
