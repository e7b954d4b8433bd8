// Package wav implements the RIFF/WAVE container reader and writer
// (spec §4.2 "WAV (RIFF, little-endian)"), grounded on the teacher's
// chunk-loop discipline in internal/mpeg (sync+header decode) and
// internal/flac (block-chain walk) generalized to RIFF's flat chunk
// list, plus internal/id3v2 for the embedded `ID3 ` tag chunk lofty-rs's
// original_source/src/iff/wav carries as a sibling to the RIFF INFO tag.
package wav

import (
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

const (
	riffMagic = "RIFF"
	waveMagic = "WAVE"
)

// WAVE_FORMAT codes recognized in the fmt chunk's first field.
const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatExtensible = 0xFFFE
)

type parser struct{}

func (parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "RIFF magic"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading RIFF magic: %v", err)
	}
	if string(magic) != riffMagic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid RIFF magic bytes")
	}

	form := make([]byte, 4)
	if err := sr.ReadAt(form, 8, "WAVE form type"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading WAVE form type: %v", err)
	}
	if string(form) != waveMagic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid WAVE form type")
	}

	file := &types.TaggedFile{FileType: types.WAV}
	infoTag := types.NewRIFFInfoList()
	hasInfo := false

	var dataSize int64
	var fmtDone bool

	offset := int64(12)
	for offset+8 <= size {
		id := make([]byte, 4)
		if err := sr.ReadAt(id, offset, "chunk id"); err != nil {
			break
		}
		chunkSize, err := binutil.ReadLE[uint32](sr, offset+4, "chunk size")
		if err != nil {
			break
		}
		dataOffset := offset + 8
		chunkID := string(id)

		switch chunkID {
		case "fmt ":
			if opts.ReadProperties {
				if err := parseFmtChunk(sr, dataOffset, int64(chunkSize), &file.Properties); err != nil {
					file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error(), Offset: dataOffset})
				} else {
					fmtDone = true
				}
			}

		case "data":
			dataSize = int64(chunkSize)

		case "LIST":
			if err := parseListChunk(sr, dataOffset, int64(chunkSize), infoTag); err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: err.Error(), Offset: dataOffset})
			} else {
				hasInfo = true
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
			advance++ // chunks are padded to an even size (spec §4.2)
		}
		offset = dataOffset + advance
	}

	if hasInfo {
		file.Tags = append(file.Tags, infoTag)
	}

	if fmtDone && dataSize > 0 && file.Properties.SampleRate > 0 {
		bytesPerSec := file.Properties.SampleRate * file.Properties.Channels * file.Properties.BitDepth / 8
		if bytesPerSec > 0 {
			seconds := float64(dataSize) / float64(bytesPerSec)
			file.Properties.Duration = time.Duration(seconds * float64(time.Second))
			file.Properties.OverallBitrate = int(float64(dataSize*8) / seconds / 1000)
			file.Properties.AudioBitrate = file.Properties.OverallBitrate
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

// parseFmtChunk decodes the canonical 16-byte PCM fmt chunk (and the
// WAVEFORMATEXTENSIBLE variant's first 16 bytes, which share the same
// layout up to validBitsPerSample/channelMask/subformat that this reader
// doesn't need).
func parseFmtChunk(sr *binutil.SafeReader, offset, size int64, props *types.FileProperties) error {
	if size < 16 {
		return types.NewError(types.ErrSizeMismatch, sr.Path(), "fmt chunk too small: %d bytes", size)
	}

	audioFormat, err := binutil.ReadLE[uint16](sr, offset, "audio format")
	if err != nil {
		return err
	}
	channels, err := binutil.ReadLE[uint16](sr, offset+2, "channel count")
	if err != nil {
		return err
	}
	sampleRate, err := binutil.ReadLE[uint32](sr, offset+4, "sample rate")
	if err != nil {
		return err
	}
	byteRate, err := binutil.ReadLE[uint32](sr, offset+8, "byte rate")
	if err != nil {
		return err
	}
	bitsPerSample, err := binutil.ReadLE[uint16](sr, offset+14, "bits per sample")
	if err != nil {
		return err
	}

	props.Channels = int(channels)
	props.SampleRate = int(sampleRate)
	props.BitDepth = int(bitsPerSample)
	props.AudioBitrate = int(byteRate*8) / 1000
	props.Lossless = audioFormat == formatPCM || audioFormat == formatIEEEFloat

	switch audioFormat {
	case formatPCM:
		props.Codec = "PCM"
	case formatIEEEFloat:
		props.Codec = "IEEE Float"
	case formatExtensible:
		props.Codec = "Extensible"
		props.Lossless = true
	default:
		props.Codec = "PCM"
	}

	return nil
}

// parseListChunk handles a LIST chunk whose 4-byte list type is "INFO":
// a run of sub-chunks, each a 4-char id, LE32 size, and null-padded
// ASCII/UTF-8 text payload (padded to an even size like top-level
// chunks).
func parseListChunk(sr *binutil.SafeReader, offset, size int64, tag *types.RIFFInfoList) error {
	listType := make([]byte, 4)
	if err := sr.ReadAt(listType, offset, "LIST type"); err != nil {
		return err
	}
	if string(listType) != "INFO" {
		return nil
	}

	pos := offset + 4
	end := offset + size

	for pos+8 <= end {
		id := make([]byte, 4)
		if err := sr.ReadAt(id, pos, "INFO sub-chunk id"); err != nil {
			return err
		}
		subSize, err := binutil.ReadLE[uint32](sr, pos+4, "INFO sub-chunk size")
		if err != nil {
			return err
		}
		dataOffset := pos + 8

		buf := make([]byte, subSize)
		if subSize > 0 {
			if err := sr.ReadAt(buf, dataOffset, "INFO sub-chunk data"); err != nil {
				return err
			}
		}
		value := trimNull(buf)
		if key, ok := infoKeyMap[string(id)]; ok {
			tag.Set(key, value)
		} else {
			tag.Set(types.Unknown(string(id)), value)
		}

		advance := int64(subSize)
		if advance%2 == 1 {
			advance++
		}
		pos = dataOffset + advance
	}

	return nil
}

func trimNull(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// infoKeyMap maps RIFF INFO's four-character chunk ids onto ItemKeys.
var infoKeyMap = map[string]types.ItemKey{
	"INAM": types.TrackTitle,
	"IART": types.TrackArtist,
	"IPRD": types.AlbumTitle,
	"IGNR": types.Genre,
	"ICMT": types.Comment,
	"ICOP": types.Copyright,
	"ICRD": types.Year,
	"ISFT": types.Encoder,
	"IPRT": types.TrackNumber,
}

func init() {
	registry.Register(types.WAV, &parser{})
	registry.RegisterWriter(types.WAV, &writer{})
}
