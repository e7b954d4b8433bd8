package id3v2

import (
	"bytes"
	"io"
	"slices"
	"strings"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/bitutil"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// WriteOptions configures tag emission. Write always targets ID3v2.4: the
// frame-size fields, the extended header size, and the footer's copy of
// the tag size are all synchsafe, matching the teacher's and the
// original's choice to always emit the newest minor version on write
// regardless of what was read.
type WriteOptions struct {
	Footer bool
	// CRC requests an extended header with the CRC flag bit set. Per
	// original_source/src/id3/v2/write/mod.rs, the flag round-trips but
	// no CRC bytes are computed or written (see DESIGN.md's Open
	// Question decision) - this field only controls that flag bit.
	CRC bool
}

// item is a single frame pending emission, already UTF-8 encoded.
type item struct {
	id   string
	body []byte
}

// Builder accumulates frames for a tag about to be written. Container
// writers (mpeg, aac, ape, wav, aiff) build one of these from a
// types.Id3v2Tag plus its pictures, then call Bytes to serialize it.
type Builder struct {
	items []item
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AddText appends a text frame ([]byte encoding 3 (UTF-8) + the string).
func (b *Builder) AddText(id, value string) {
	if value == "" {
		return
	}
	body := append([]byte{3}, []byte(value)...)
	b.items = append(b.items, item{id: id, body: body})
}

// AddTXXX appends a user-defined text frame (description/value pair).
func (b *Builder) AddTXXX(description, value string) {
	if value == "" {
		return
	}
	body := append([]byte{3}, []byte(description)...)
	body = append(body, 0)
	body = append(body, []byte(value)...)
	b.items = append(b.items, item{id: "TXXX", body: body})
}

// AddComment appends a COMM frame with language "eng" and an empty
// description.
func (b *Builder) AddComment(text string) {
	if text == "" {
		return
	}
	body := []byte{3, 'e', 'n', 'g', 0}
	body = append(body, []byte(text)...)
	b.items = append(b.items, item{id: "COMM", body: body})
}

// AddPicture appends an APIC frame.
func (b *Builder) AddPicture(mimeType string, picType byte, description string, data []byte) {
	var body bytes.Buffer
	body.WriteByte(3)
	body.WriteString(mimeType)
	body.WriteByte(0)
	body.WriteByte(picType)
	body.WriteString(description)
	body.WriteByte(0)
	body.Write(data)
	b.items = append(b.items, item{id: "APIC", body: body.Bytes()})
}

// AddRaw appends a frame with an already-built body, for unknown/raw
// items preserved verbatim across a read-modify-write cycle.
func (b *Builder) AddRaw(id string, body []byte) {
	b.items = append(b.items, item{id: id, body: body})
}

// Empty reports whether no frames were added, in which case the tag
// writer should emit nothing at all (mirrors create_tag's early return).
func (b *Builder) Empty() bool { return len(b.items) == 0 }

// Bytes serializes the accumulated frames into a complete ID3v2.4 tag:
// 10-byte header, extended header (if opts.CRC), frame list, and an
// optional footer, with the header/extended-header/footer size fields
// all synchsafe-encoded as spec §4.3 requires.
func (b *Builder) Bytes(opts WriteOptions) ([]byte, error) {
	if b.Empty() {
		return nil, nil
	}

	var buf bytes.Buffer
	sw := binutil.NewSafeWriter(&buf)

	sw.WriteString(Magic)
	_ = binutil.Write[uint8](sw, 4) // version
	_ = binutil.Write[uint8](sw, 0) // revision

	var flagsByte byte
	if opts.Footer {
		flagsByte |= 0x10
	}
	if opts.CRC {
		flagsByte |= 0x40
	}
	_ = binutil.Write[uint8](sw, flagsByte)

	sizeFieldOffset := sw.Offset()
	_ = binutil.Write[uint32](sw, 0) // placeholder, patched below
	headerLen := sw.Offset()

	if opts.CRC {
		// Extended header: size(4, synchsafe=6) numFlagBytes(1)=1 flags(1)=0x20.
		// The CRC value itself is intentionally not computed or written
		// (see DESIGN.md); only the flag bit is preserved on round-trip.
		_ = binutil.Write[uint32](sw, bitutil.PackSynchsafe(6))
		_ = binutil.Write[uint8](sw, 1)
		_ = binutil.Write[uint8](sw, 0x20)
	}

	for _, it := range b.items {
		sw.WriteString(it.id)
		_ = binutil.Write[uint32](sw, bitutil.PackSynchsafe(uint32(len(it.body))))
		_ = binutil.Write[uint16](sw, 0) // frame flags
		sw.WriteBytes(it.body)
	}

	out := buf.Bytes()
	tagLen := uint32(len(out)) - uint32(headerLen)
	sz := bitutil.PackSynchsafe(tagLen)
	out[sizeFieldOffset] = byte(sz >> 24)
	out[sizeFieldOffset+1] = byte(sz >> 16)
	out[sizeFieldOffset+2] = byte(sz >> 8)
	out[sizeFieldOffset+3] = byte(sz)

	if opts.Footer {
		// A footer is the header's mirror, 10 bytes total: "3DI" (the
		// reverse of "ID3") plus the same version/revision/flags/size
		// fields, not a second full header.
		out2 := make([]byte, 0, len(out)+HeaderLen)
		out2 = append(out2, out...)
		out2 = append(out2, '3', 'D', 'I')
		out2 = append(out2, out[3:10]...) // version, revision, flags, size
		out = out2
	}

	return out, nil
}

// itemKeyFrame is the reverse of textFrameKey: the standard ID3v2.4
// frame ID a given ItemKey round-trips through on write.
func itemKeyFrame(key types.ItemKey) (id string, ok bool) {
	switch key {
	case types.TrackTitle:
		return "TIT2", true
	case types.TrackSubtitle:
		return "TIT3", true
	case types.Grouping:
		return "TIT1", true
	case types.TrackArtist:
		return "TPE1", true
	case types.AlbumArtist:
		return "TPE2", true
	case types.AlbumTitle:
		return "TALB", true
	case types.Genre:
		return "TCON", true
	case types.RecordingDate:
		return "TDRC", true
	case types.OriginalDate:
		return "TDOR", true
	case types.Composer:
		return "TCOM", true
	case types.Conductor:
		return "TPE3", true
	case types.TrackNumber:
		return "TRCK", true
	case types.DiscNumber:
		return "TPOS", true
	case types.Copyright:
		return "TCOP", true
	case types.Publisher:
		return "TPUB", true
	case types.ISRC:
		return "TSRC", true
	case types.EncodedBy:
		return "TENC", true
	case types.Encoder:
		return "TSSE", true
	default:
		return "", false
	}
}

// BuildFromTag converts tag's items and pictures into a Builder ready for
// Bytes, so any container whose tag placement is "rebuild from scratch"
// (MPEG, AAC-ADTS, APE, WAV, AIFF) shares one frame-emission path.
func BuildFromTag(tag *types.Id3v2Tag) *Builder {
	b := NewBuilder()
	if tag == nil {
		return b
	}

	// tag.Items() ranges a Go map, whose iteration order is randomized;
	// sort the keys first so two serializations of the same logical tag
	// always emit frames in the same byte order.
	items := make(map[types.ItemKey][]string)
	keys := make([]types.ItemKey, 0)
	for key, values := range tag.Items() {
		if len(values) == 0 {
			continue
		}
		items[key] = values
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		values := items[key]
		if strings.HasPrefix(string(key), "UNKNOWN:") {
			raw := strings.TrimPrefix(string(key), "UNKNOWN:")
			if strings.HasPrefix(raw, "TXXX:") {
				b.AddTXXX(strings.TrimPrefix(raw, "TXXX:"), values[0])
			} else {
				b.AddRaw(raw, []byte(values[0]))
			}
			continue
		}

		switch key {
		case types.Comment:
			b.AddComment(values[0])
		case types.Narrator:
			b.AddTXXX("NARRATOR", values[0])
		case types.Series:
			b.AddTXXX("SERIES", values[0])
		case types.SeriesPart:
			b.AddTXXX("SERIES-PART", values[0])
		case types.ISBN:
			b.AddTXXX("ISBN", values[0])
		case types.ASIN:
			b.AddTXXX("ASIN", values[0])
		case types.ReplayGainTrackGain:
			b.AddTXXX("REPLAYGAIN_TRACK_GAIN", values[0])
		case types.ReplayGainTrackPeak:
			b.AddTXXX("REPLAYGAIN_TRACK_PEAK", values[0])
		case types.ReplayGainAlbumGain:
			b.AddTXXX("REPLAYGAIN_ALBUM_GAIN", values[0])
		case types.ReplayGainAlbumPeak:
			b.AddTXXX("REPLAYGAIN_ALBUM_PEAK", values[0])
		default:
			if id, ok := itemKeyFrame(key); ok {
				if key == types.Genre {
					for _, v := range values {
						b.AddText(id, v)
					}
					continue
				}
				b.AddText(id, values[0])
			}
		}
	}

	for _, pic := range tag.Pictures() {
		b.AddPicture(pic.MIMEType, byte(pic.PicType), pic.Description, pic.Data)
	}

	return b
}

// PrependToFile writes a new tag followed by original's content starting
// at oldTagLen (the size of whatever ID3v2 tag, possibly zero, previously
// occupied the start of the file), for the MPEG/AAC/APE placement rule
// (spec §4.3 "prepended block").
func PrependToFile(w io.Writer, tagBytes []byte, original io.ReaderAt, originalSize, oldTagLen int64) error {
	if len(tagBytes) > 0 {
		if _, err := w.Write(tagBytes); err != nil {
			return err
		}
	}
	_, err := io.Copy(w, io.NewSectionReader(original, oldTagLen, originalSize-oldTagLen))
	return err
}
