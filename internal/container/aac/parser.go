// Package aac implements the raw AAC-ADTS container reader (spec §4.2
// "AAC-ADTS"): an optional ID3v2 prelude via internal/id3v2, frame-sync
// location via internal/framesync, and ADTS frame-header decoding to
// derive sample rate, channel count, and duration by walking the frame
// chain to a total sample count. Grounded on the teacher's internal/mp3
// package's technical-info structure, since the teacher has no ADTS
// reader of its own; the ADTS bit layout follows ISO/IEC 13818-7.
package aac

import (
	"time"

	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/framesync"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// samplesPerFrame is the fixed raw-data-block sample count for the
// Low Complexity AAC profile this reader targets.
const samplesPerFrame = 1024

// maxFramesWalked bounds the frame-chain walk used to estimate duration,
// so a corrupted frameLength field of 0 (which would otherwise spin
// forever at the same offset) cannot hang a parse.
const maxFramesWalked = 10_000_000

type parser struct{}

func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	file := &types.TaggedFile{FileType: types.AAC}

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

func parseProperties(sr *binutil.SafeReader, tagLen, size int64, props *types.FileProperties) error {
	off, kind, err := framesync.Find(sr, tagLen, size, size-tagLen)
	if err != nil {
		return err
	}
	if kind != framesync.KindAAC {
		return nil
	}

	buf := make([]byte, 7)
	if err := sr.ReadAt(buf, off, "ADTS header"); err != nil {
		return err
	}
	h, ok := decodeADTSHeader(buf)
	if !ok {
		return nil
	}

	props.Codec = "AAC"
	props.CodecDescription = profileName(h.profile)
	props.SampleRate = h.sampleRate
	props.Channels = h.channels

	totalFrames, audioBytes := walkFrames(sr, off, size)
	if totalFrames > 0 {
		totalSamples := uint64(totalFrames) * samplesPerFrame
		seconds := float64(totalSamples) / float64(h.sampleRate)
		props.Duration = time.Duration(seconds * float64(time.Second))
		if props.Duration > 0 {
			props.AudioBitrate = int(float64(audioBytes*8) / props.Duration.Seconds() / 1000)
			props.OverallBitrate = int(float64(size*8) / props.Duration.Seconds() / 1000)
		}
	}

	return nil
}

func profileName(profile int) string {
	if profile >= 0 && profile < len(profileNames) {
		return profileNames[profile]
	}
	return "AAC"
}

// walkFrames walks the ADTS frame chain from off to size, returning the
// number of frames found and the total bytes they occupy.
func walkFrames(sr *binutil.SafeReader, off, size int64) (frames int, audioBytes int64) {
	buf := make([]byte, 7)
	for off+7 <= size && frames < maxFramesWalked {
		if err := sr.ReadAt(buf, off, "ADTS header"); err != nil {
			break
		}
		h, ok := decodeADTSHeader(buf)
		if !ok || h.frameLength <= 0 {
			break
		}
		frames++
		audioBytes += int64(h.frameLength)
		off += int64(h.frameLength)
	}
	return frames, audioBytes
}

func init() {
	registry.Register(types.AAC, &parser{})
}
