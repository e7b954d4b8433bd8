// Package aiff implements the FORM/AIFF(C) container reader and writer
// (spec §4.2 "AIFF (FORM, big-endian)"), grounded on internal/container/wav's
// chunk-loop shape (itself generalized from the teacher's internal/mpeg
// sync-and-decode discipline) with every multi-byte field read big-endian
// instead of little, plus internal/id3v2 for the embedded `ID3 `/`id3 `
// tag chunk lofty-rs's original_source/src/iff/aiff carries as a sibling
// to the AIFF text chunks.
package aiff

import (
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

const formMagic = "FORM"

type parser struct{}

func (parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FORM magic"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading FORM magic: %v", err)
	}
	if string(magic) != formMagic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid FORM magic bytes")
	}

	formType := make([]byte, 4)
	if err := sr.ReadAt(formType, 8, "AIFF form type"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading AIFF form type: %v", err)
	}
	switch string(formType) {
	case "AIFF", "AIFC":
	default:
		return nil, types.NewError(types.ErrFakeData, path, "unrecognized FORM type %q", formType)
	}

	file := &types.TaggedFile{FileType: types.AIFF}
	textTag := types.NewAIFFTextChunks()
	hasText := false

	var sampleFrames uint32
	var haveComm bool

	offset := int64(12)
	for offset+8 <= size {
		id := make([]byte, 4)
		if err := sr.ReadAt(id, offset, "chunk id"); err != nil {
			break
		}
		chunkSize, err := binutil.ReadBE[uint32](sr, offset+4, "chunk size")
		if err != nil {
			break
		}
		dataOffset := offset + 8
		chunkID := string(id)

		switch chunkID {
		case "COMM":
			if opts.ReadProperties {
				if err := parseCommChunk(sr, dataOffset, int64(chunkSize), &file.Properties); err != nil {
					file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error(), Offset: dataOffset})
				} else {
					haveComm = true
					sampleFrames, _ = binutil.ReadBE[uint32](sr, dataOffset+2, "num sample frames")
				}
			}

		case "SSND":
			// sample data; nothing here contributes to tags or
			// properties beyond what COMM already gives duration from.

		case "NAME", "AUTH", "(c) ", "ANNO":
			value, err := readTextChunk(sr, dataOffset, int64(chunkSize))
			if err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: err.Error(), Offset: dataOffset})
				break
			}
			if key, ok := textChunkKeyMap[chunkID]; ok {
				textTag.Set(key, value)
				hasText = true
			}

		case "ID3 ", "id3 ":
			tagSR := binutil.NewSafeReader(io.NewSectionReader(r, dataOffset, int64(chunkSize)), int64(chunkSize), path)
			if id3v2.HasTag(tagSR) {
				result, err := id3v2.Read(tagSR, opts.AllocationLimit)
				if err != nil {
					if apeErr, ok := err.(*types.Error); ok && apeErr.Kind == types.ErrTooMuchData {
						return nil, err
					}
					file.Warnings = append(file.Warnings, types.Warning{Stage: "id3v2", Message: err.Error(), Offset: dataOffset})
				} else {
					file.Tags = append(file.Tags, result.Tag)
					file.Chapters = result.Chapters
					file.Warnings = append(file.Warnings, result.Warnings...)
				}
			}
		}

		advance := int64(chunkSize)
		if advance%2 == 1 {
			advance++ // pad byte only when size is odd (spec §4.2)
		}
		offset = dataOffset + advance
	}

	if hasText {
		file.Tags = append(file.Tags, textTag)
	}

	if haveComm && file.Properties.SampleRate > 0 && sampleFrames > 0 {
		file.Properties.Duration = time.Duration(float64(sampleFrames) / float64(file.Properties.SampleRate) * float64(time.Second))
		if file.Properties.Duration > 0 {
			bitsTotal := int64(sampleFrames) * int64(file.Properties.Channels) * int64(file.Properties.BitDepth)
			file.Properties.AudioBitrate = int(float64(bitsTotal) / file.Properties.Duration.Seconds() / 1000)
			file.Properties.OverallBitrate = file.Properties.AudioBitrate
		}
	}

	return file, nil
}

func (p parser) ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error) {
	file, err := p.Parse(r, size, path, opts)
	if err != nil {
		return nil, err
	}
	if tag := file.TagByType(types.TagID3v2); tag != nil {
		return tag.Pictures(), nil
	}
	return nil, nil
}

// parseCommChunk decodes COMM: numChannels (int16 BE), numSampleFrames
// (uint32 BE), sampleSize (int16 BE), sampleRate (80-bit IEEE 754
// extended precision, BE).
func parseCommChunk(sr *binutil.SafeReader, offset, size int64, props *types.FileProperties) error {
	if size < 18 {
		return types.NewError(types.ErrSizeMismatch, sr.Path(), "COMM chunk too small: %d bytes", size)
	}

	channels, err := binutil.ReadBE[uint16](sr, offset, "channel count")
	if err != nil {
		return err
	}
	sampleSize, err := binutil.ReadBE[uint16](sr, offset+6, "sample size")
	if err != nil {
		return err
	}

	rateBytes := make([]byte, 10)
	if err := sr.ReadAt(rateBytes, offset+8, "sample rate"); err != nil {
		return err
	}
	sampleRate := decodeExtended(rateBytes)

	props.Channels = int(channels)
	props.BitDepth = int(sampleSize)
	props.SampleRate = int(sampleRate)
	props.Codec = "PCM"
	props.Lossless = true

	return nil
}

// readTextChunk reads an AIFF text chunk's payload verbatim; AIFF text
// chunks are Pascal-style byte runs without the null-padding WAV's INFO
// subchunks use, so no trimming is applied beyond what the chunk size
// already bounds.
func readTextChunk(sr *binutil.SafeReader, offset, size int64) (string, error) {
	buf := make([]byte, size)
	if size > 0 {
		if err := sr.ReadAt(buf, offset, "text chunk data"); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

// textChunkKeyMap maps AIFF's four common text chunk ids onto ItemKeys.
var textChunkKeyMap = map[string]types.ItemKey{
	"NAME": types.TrackTitle,
	"AUTH": types.TrackArtist,
	"(c) ": types.Copyright,
	"ANNO": types.Comment,
}

func init() {
	registry.Register(types.AIFF, &parser{})
	registry.RegisterWriter(types.AIFF, &writer{})
}
