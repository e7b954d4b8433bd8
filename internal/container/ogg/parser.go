package ogg

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
	"github.com/BSteffaniak/lofty-go/internal/vorbis"
)

// parser implements registry.FormatParser/ArtworkExtractor for all three
// Ogg-encapsulated codecs this library supports (spec §4.2: "Codec
// identification comes from the first packet"). One instance is
// registered against types.Ogg, types.Vorbis, types.Opus, and
// types.Speex alike, mirroring the teacher's single-parser-for-both-
// codecs registration generalized to a third codec.
type parser struct{}

func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "Ogg magic"); err != nil {
		return nil, err
	}
	if string(magic) != pageMagic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid Ogg magic bytes")
	}

	file := &types.TaggedFile{FileType: types.Ogg}

	var pages []*page
	offset := int64(0)
	for i := 0; i < 3 && offset < size; i++ {
		pg, next, err := readPage(sr, offset)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("read first Ogg page: %w", err)
			}
			file.Warnings = append(file.Warnings, types.Warning{Stage: "probe", Message: err.Error(), Offset: offset})
			break
		}
		pages = append(pages, pg)
		offset = next
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no Ogg pages found")
	}

	packets := extractPackets(pages)
	if len(packets) < 2 {
		return nil, fmt.Errorf("not enough Ogg packets found (need at least 2, got %d)", len(packets))
	}

	comments := types.NewVorbisComments()

	switch codec := identifyCodec(packets[0]); codec {
	case codecVorbis:
		file.FileType = types.Vorbis
		if err := parseVorbisIdentification(packets[0], &file.Properties); err != nil {
			return nil, fmt.Errorf("parse Vorbis identification header: %w", err)
		}
		if opts.ReadProperties && file.Properties.SampleRate > 0 {
			if d, err := calculateDuration(sr, size, file.Properties.SampleRate); err == nil {
				file.Properties.Duration = d
			}
		}
		if err := parseCommentPacket(packets[1], 7, "vorbis", comments, file, opts); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "tag", Message: err.Error()})
		}

	case codecOpus:
		file.FileType = types.Opus
		if err := parseOpusHead(packets[0], &file.Properties, &file.Warnings); err != nil {
			return nil, fmt.Errorf("parse OpusHead: %w", err)
		}
		if opts.ReadProperties {
			if d, err := calculateDuration(sr, size, file.Properties.SampleRate); err == nil {
				file.Properties.Duration = d
			}
			if file.Properties.Duration > 0 {
				file.Properties.AudioBitrate = estimateOpusBitrate(size, file.Properties.Duration) / 1000
				file.Properties.OverallBitrate = file.Properties.AudioBitrate
			}
		}
		if err := parseCommentPacket(packets[1], 8, "OpusTags", comments, file, opts); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "tag", Message: err.Error()})
		}

	case codecSpeex:
		file.FileType = types.Speex
		if err := parseSpeexHeader(packets[0], &file.Properties); err != nil {
			return nil, fmt.Errorf("parse Speex header: %w", err)
		}
		if opts.ReadProperties && file.Properties.SampleRate > 0 {
			if d, err := calculateDuration(sr, size, file.Properties.SampleRate); err == nil {
				file.Properties.Duration = d
			}
		}
		if err := parseCommentPacket(packets[1], 0, "speex", comments, file, opts); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "tag", Message: err.Error()})
		}

	default:
		return nil, fmt.Errorf("unrecognized Ogg codec magic")
	}

	file.Tags = append(file.Tags, comments)
	if opts.ReadPictures {
		file.Pictures = picturesFromComments(comments, opts.AllocationLimit)
	}

	return file, nil
}

func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error) {
	opts.ReadPictures = true
	opts.ReadProperties = false
	file, err := p.Parse(r, size, path, opts)
	if err != nil {
		return nil, err
	}
	return file.Pictures, nil
}

const (
	codecVorbis = "vorbis"
	codecOpus   = "opus"
	codecSpeex  = "speex"
)

// identifyCodec mirrors internal/probe's classifyOgg magic check, applied
// to an already-extracted first packet rather than a raw page buffer.
func identifyCodec(first []byte) string {
	switch {
	case len(first) >= 8 && string(first[0:8]) == "OpusHead":
		return codecOpus
	case len(first) >= 7 && first[0] == 0x01 && string(first[1:7]) == "vorbis":
		return codecVorbis
	case len(first) >= 5 && string(first[0:5]) == "Speex":
		return codecSpeex
	default:
		return ""
	}
}

func parseVorbisIdentification(data []byte, props *types.FileProperties) error {
	if len(data) < 30 {
		return fmt.Errorf("identification header too short: %d bytes", len(data))
	}
	if data[0] != 0x01 || string(data[1:7]) != "vorbis" {
		return fmt.Errorf("invalid Vorbis identification header")
	}
	if v := binary.LittleEndian.Uint32(data[7:11]); v != 0 {
		return fmt.Errorf("unsupported Vorbis version: %d", v)
	}

	channels := data[11]
	sampleRate := binary.LittleEndian.Uint32(data[12:16])
	bitrateNominal := binary.LittleEndian.Uint32(data[20:24])

	props.Codec = "Vorbis"
	props.CodecDescription = "Ogg Vorbis"
	props.SampleRate = int(sampleRate)
	props.Channels = int(channels)
	props.AudioBitrate = int(bitrateNominal) / 1000
	props.OverallBitrate = props.AudioBitrate
	props.Lossless = false

	return nil
}

func parseOpusHead(data []byte, props *types.FileProperties, warnings *[]types.Warning) error {
	if len(data) < 19 {
		return fmt.Errorf("OpusHead packet too short: %d bytes", len(data))
	}
	if string(data[0:8]) != "OpusHead" {
		return fmt.Errorf("invalid OpusHead magic")
	}
	if version := data[8]; version != 1 {
		return fmt.Errorf("unsupported Opus version: %d", version)
	}

	channels := data[9]
	inputSampleRate := binary.LittleEndian.Uint32(data[12:16])
	outputGain := int16(binary.LittleEndian.Uint16(data[16:18]))

	props.Codec = "Opus"
	props.CodecDescription = "Ogg Opus"
	props.SampleRate = 48000 // Opus always decodes at 48kHz regardless of input rate
	props.Channels = int(channels)
	props.Lossless = false

	if inputSampleRate != 48000 && inputSampleRate > 0 {
		*warnings = append(*warnings, types.Warning{Stage: "properties", Message: fmt.Sprintf("original sample rate was %d Hz (Opus outputs at 48 kHz)", inputSampleRate)})
	}
	if outputGain != 0 {
		*warnings = append(*warnings, types.Warning{Stage: "properties", Message: fmt.Sprintf("output gain: %.2f dB", float64(outputGain)/256.0)})
	}

	return nil
}

// parseSpeexHeader parses the fixed-layout speex_header_t identification
// packet (28-byte string/version fields followed by little-endian
// int32 properties), grounded directly on the Speex ogg encapsulation
// spec text since neither the teacher nor the example pack implements
// Speex.
func parseSpeexHeader(data []byte, props *types.FileProperties) error {
	const headerLen = 80
	if len(data) < headerLen {
		return fmt.Errorf("Speex header too short: %d bytes", len(data))
	}
	if string(data[0:5]) != "Speex" {
		return fmt.Errorf("invalid Speex magic")
	}

	sampleRate := binary.LittleEndian.Uint32(data[36:40])
	channels := binary.LittleEndian.Uint32(data[48:52])
	bitrate := int32(binary.LittleEndian.Uint32(data[52:56]))

	props.Codec = "Speex"
	props.CodecDescription = "Ogg Speex"
	props.SampleRate = int(sampleRate)
	props.Channels = int(channels)
	if bitrate > 0 {
		props.AudioBitrate = int(bitrate) / 1000
		props.OverallBitrate = props.AudioBitrate
	}
	props.Lossless = false

	return nil
}

// parseCommentPacket strips the codec-specific magic prefix (magicLen
// bytes: 7 for "\x03vorbis", 8 for "OpusTags", 0 for Speex, whose
// comment packet carries no magic) and parses the Vorbis-Comment-shaped
// vendor+key/value list that follows, plus CHAPTERxxx comments.
func parseCommentPacket(data []byte, magicLen int, magicName string, comments *types.VorbisComments, file *types.TaggedFile, opts types.ParseOptions) error {
	if len(data) < magicLen+8 {
		return fmt.Errorf("%s comment header too short: %d bytes", magicName, len(data))
	}

	offset := magicLen

	vendorLen := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4
	if offset+int(vendorLen) > len(data) {
		return fmt.Errorf("truncated vendor string")
	}
	comments.Vendor = string(data[offset : offset+int(vendorLen)])
	offset += int(vendorLen)

	if offset+4 > len(data) {
		return fmt.Errorf("truncated comment count")
	}
	count := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4

	var all []string
	for i := uint32(0); i < count; i++ {
		if offset+4 > len(data) {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "tag", Message: fmt.Sprintf("truncated comment %d", i)})
			break
		}
		commentLen := binary.LittleEndian.Uint32(data[offset : offset+4])
		offset += 4
		if offset+int(commentLen) > len(data) {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "tag", Message: fmt.Sprintf("truncated comment %d data", i)})
			break
		}
		comment := string(data[offset : offset+int(commentLen)])
		offset += int(commentLen)

		all = append(all, comment)
		if err := vorbis.ParseComment(comment, comments, &file.Properties); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "tag", Message: err.Error()})
		}
	}

	if len(all) > 0 {
		file.Chapters = vorbis.ParseChapters(all, file.Properties.Duration)
	}

	return nil
}

func picturesFromComments(comments *types.VorbisComments, allocationLimit int64) []types.Picture {
	values := comments.GetAll(types.Unknown("METADATA_BLOCK_PICTURE"))
	if len(values) == 0 {
		return nil
	}
	pics := make([]types.Picture, 0, len(values))
	for _, v := range values {
		pic, err := decodeBlockPicture(v, allocationLimit)
		if err != nil {
			continue
		}
		pics = append(pics, pic)
	}
	return pics
}

// estimateOpusBitrate estimates bitrate from file size and duration
// since OpusHead carries no nominal-bitrate field; it subtracts a fixed
// ~5KB allowance for header/tag overhead.
func estimateOpusBitrate(fileSize int64, duration time.Duration) int {
	if duration <= 0 {
		return 0
	}
	audioSize := fileSize - 5000
	if audioSize < 0 {
		audioSize = fileSize
	}
	seconds := duration.Seconds()
	if seconds == 0 {
		return 0
	}
	return int((float64(audioSize) * 8) / seconds)
}

// calculateDuration divides the final page's granule position (a sample
// count) by sampleRate (spec §4.2: "Duration uses the last page's
// granule position divided by sample rate").
func calculateDuration(sr *binutil.SafeReader, fileSize int64, sampleRate int) (time.Duration, error) {
	if sampleRate == 0 {
		return 0, fmt.Errorf("sample rate is zero")
	}
	granule, err := findLastGranulePosition(sr, fileSize)
	if err != nil {
		return 0, err
	}
	if granule < 0 {
		return 0, fmt.Errorf("granule position not set")
	}
	seconds := float64(granule) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

func init() {
	p := &parser{}
	registry.Register(types.Ogg, p)
	registry.Register(types.Vorbis, p)
	registry.Register(types.Opus, p)
	registry.Register(types.Speex, p)
}
