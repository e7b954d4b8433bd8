// Package mpeg implements the MPEG audio (MP2/MP3) container reader and
// writer (spec §4.2 "MPEG"): ID3v2 prelude via internal/id3v2, frame-sync
// location via internal/framesync, frame header decoding per the ISO/IEC
// 11172-3 tables, and Xing/Info/VBRI duration estimation. Grounded on the
// teacher's internal/mp3 package, generalized from Layer III-only to the
// full version/layer table and from the teacher's flattened types.File
// onto types.TaggedFile with an *types.Id3v2Tag.
package mpeg

import (
	"encoding/binary"
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/framesync"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

type parser struct{}

func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	file := &types.TaggedFile{FileType: types.MPEG}

	var tagLen int64
	if id3v2.HasTag(sr) {
		result, err := id3v2.Read(sr, opts.AllocationLimit)
		if err != nil {
			if apeErr, ok := err.(*types.Error); ok && apeErr.Kind == types.ErrTooMuchData {
				return nil, err
			}
			file.Warnings = append(file.Warnings, types.Warning{Stage: "id3v2", Message: err.Error()})
		} else {
			file.Tags = append(file.Tags, result.Tag)
			file.Chapters = result.Chapters
			file.Warnings = append(file.Warnings, result.Warnings...)
			tagLen = result.TagLen
		}
	}

	if opts.ReadProperties {
		if err := parseProperties(sr, tagLen, size, &file.Properties); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error()})
		}
	}

	return file, nil
}

func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error) {
	sr := binutil.NewSafeReader(r, size, path)
	if !id3v2.HasTag(sr) {
		return nil, nil
	}
	result, err := id3v2.Read(sr, opts.AllocationLimit)
	if err != nil {
		return nil, err
	}
	return result.Tag.Pictures(), nil
}

// parseProperties locates the first audio frame after any ID3v2 prelude
// and derives sample rate, channel count, bitrate, and duration.
func parseProperties(sr *binutil.SafeReader, tagLen, size int64, props *types.FileProperties) error {
	off, kind, err := framesync.Find(sr, tagLen, size, size-tagLen)
	if err != nil {
		return err
	}
	if kind != framesync.KindMPEG {
		return nil
	}

	word, err := framesync.ReadHeaderWord(sr, off)
	if err != nil {
		return err
	}
	h, ok := decodeHeader(word)
	if !ok {
		return nil
	}

	props.Codec = "MP3"
	props.CodecDescription = mp3LayerName(h.lyr)
	props.SampleRate = h.sampleRate
	props.Channels = h.channels
	props.AudioBitrate = h.bitrateKbps

	audioSize := size - off
	if dur, frames, vbr, ok := readSideInfo(sr, off, h); ok {
		props.Duration = dur
		props.VBR = vbr
		if frames > 0 {
			props.OverallBitrate = int(float64(size*8) / dur.Seconds() / 1000)
		}
		return nil
	}

	props.VBR = false
	props.Duration = estimateCBRDuration(h.bitrateKbps, audioSize)
	props.OverallBitrate = h.bitrateKbps
	return nil
}

func mp3LayerName(l layer) string {
	switch l {
	case layerI:
		return "MPEG Layer I"
	case layerII:
		return "MPEG Layer II"
	default:
		return "MPEG Layer III"
	}
}

// readSideInfo looks for a Xing/Info or VBRI header at the canonical
// offset and, if found, computes duration from its declared frame count.
func readSideInfo(sr *binutil.SafeReader, frameOffset int64, h header) (dur time.Duration, frames uint32, vbr bool, ok bool) {
	xingOff := frameOffset + h.xingOffset()

	buf := make([]byte, 120)
	if err := sr.ReadAt(buf, xingOff, "Xing/Info header"); err == nil {
		marker := string(buf[0:4])
		if marker == "Xing" || marker == "Info" {
			flags := binary.BigEndian.Uint32(buf[4:8])
			if flags&0x0001 != 0 {
				numFrames := binary.BigEndian.Uint32(buf[8:12])
				return framesToDuration(numFrames, h), numFrames, marker == "Xing", true
			}
		}
	}

	vbriBuf := make([]byte, 32)
	if err := sr.ReadAt(vbriBuf, frameOffset+36, "VBRI header"); err == nil {
		if string(vbriBuf[0:4]) == "VBRI" && len(vbriBuf) >= 18 {
			numFrames := binary.BigEndian.Uint32(vbriBuf[14:18])
			return framesToDuration(numFrames, h), numFrames, true, true
		}
	}

	return 0, 0, false, false
}

func framesToDuration(numFrames uint32, h header) time.Duration {
	totalSamples := uint64(numFrames) * uint64(h.samplesPerFrame())
	seconds := float64(totalSamples) / float64(h.sampleRate)
	return time.Duration(seconds * float64(time.Second))
}

func estimateCBRDuration(bitrateKbps int, audioSize int64) time.Duration {
	if bitrateKbps == 0 {
		return 0
	}
	seconds := float64(audioSize*8) / float64(bitrateKbps*1000)
	return time.Duration(seconds * float64(time.Second))
}

func init() {
	registry.Register(types.MPEG, &parser{})
	registry.RegisterWriter(types.MPEG, &writer{})
}
