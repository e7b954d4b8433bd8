package id3v2

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/bitutil"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// rawFrame is a frame after header parsing and flag-pipeline decoding,
// holding the final, plain frame body.
type rawFrame struct {
	id    string // always normalized to the 4-char v2.3/2.4 form
	body  []byte
	flags uint16 // v2.4 raw frame status+format flag bits, 0 for v2.2/2.3
}

// frameHeaderLen is 6 for ID3v2.2 (3-char id + 3-byte size) and 10 for
// ID3v2.3/2.4 (4-char id + 4-byte size + 2-byte flags).
func frameHeaderLen(version byte) int {
	if version == 2 {
		return 6
	}
	return 10
}

// readFrames walks the frame list starting at startOffset up to tagEnd,
// decoding the per-frame flag pipeline and normalizing v2.2's 3-char
// frame IDs to their v2.3/2.4 equivalents where a direct mapping exists.
func readFrames(sr *binutil.SafeReader, h Header, startOffset, tagEnd int64, allocLimit int64) ([]rawFrame, []types.Warning, error) {
	var frames []rawFrame
	var warnings []types.Warning

	hdrLen := frameHeaderLen(h.Version)
	offset := startOffset

	for offset+int64(hdrLen) <= tagEnd {
		hdrBuf := make([]byte, hdrLen)
		if err := sr.ReadAt(hdrBuf, offset, "frame header"); err != nil {
			break
		}
		if hdrBuf[0] == 0 {
			break // padding
		}

		var id string
		var size uint32
		var flagBits uint16

		if h.Version == 2 {
			id = v22To24(string(hdrBuf[0:3]))
			size = uint32(hdrBuf[3])<<16 | uint32(hdrBuf[4])<<8 | uint32(hdrBuf[5])
		} else {
			id = string(hdrBuf[0:4])
			if h.Version == 4 {
				sz, err := bitutil.UnpackSynchsafe(binary.BigEndian.Uint32(hdrBuf[4:8]), sr.Path())
				if err != nil {
					break
				}
				size = sz
			} else {
				size = binary.BigEndian.Uint32(hdrBuf[4:8])
			}
			flagBits = binary.BigEndian.Uint16(hdrBuf[8:10])
		}

		bodyOffset := offset + int64(hdrLen)
		offset = bodyOffset + int64(size)

		// Unlike corrupt-framing warnings below, an allocation-limit
		// violation is a hard failure regardless of ParsingMode: it's a
		// safety bound against attacker-controlled sizes, not a
		// tolerance knob.
		if err := bitutil.Guard(int64(size), allocLimit, sr.Path(), "ID3v2 frame "+id); err != nil {
			return nil, nil, err
		}

		body := make([]byte, size)
		if size > 0 {
			if err := sr.ReadAt(body, bodyOffset, "frame "+id+" body"); err != nil {
				warnings = append(warnings, types.Warning{Stage: "id3v2", Message: err.Error(), Offset: bodyOffset})
				continue
			}
		}

		decoded, err := decodeFramePipeline(h.Version, flagBits, body)
		if err != nil {
			warnings = append(warnings, types.Warning{Stage: "id3v2", Message: "frame " + id + ": " + err.Error(), Offset: bodyOffset})
			continue
		}

		frames = append(frames, rawFrame{id: id, body: decoded, flags: flagBits})
	}

	return frames, warnings, nil
}

// decodeFramePipeline reverses the per-frame flag pipeline (spec §4.3):
// on read, consume grouping, compression, encryption, unsynchronisation,
// and the data-length indicator in the reverse of their emit order.
// Encrypted frames are left as opaque bytes (never decompressed or
// otherwise interpreted) since the encryption method is tag-external.
func decodeFramePipeline(version byte, flags uint16, body []byte) ([]byte, error) {
	if version != 4 || flags == 0 {
		return body, nil
	}

	const (
		flagGroup      = 0x0040
		flagCompressed = 0x0008
		flagEncrypted  = 0x0004
		flagUnsync     = 0x0002
		flagDataLen    = 0x0001
	)

	if flags&flagGroup != 0 {
		if len(body) < 1 {
			return nil, types.NewError(types.ErrSizeMismatch, "", "grouped frame missing group byte")
		}
		body = body[1:]
	}
	if flags&flagEncrypted != 0 {
		if len(body) < 1 {
			return nil, types.NewError(types.ErrSizeMismatch, "", "encrypted frame missing method byte")
		}
		// Encrypted payload is opaque; return as-is after the method byte.
		return body[1:], nil
	}
	if flags&flagDataLen != 0 {
		if len(body) < 4 {
			return nil, types.NewError(types.ErrSizeMismatch, "", "frame missing data length indicator")
		}
		body = body[4:]
	}
	if flags&flagUnsync != 0 {
		body = bitutil.Desync(body)
	}
	if flags&flagCompressed != 0 {
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, types.NewError(types.ErrSizeMismatch, "", "inflating compressed frame: %v", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, types.NewError(types.ErrSizeMismatch, "", "inflating compressed frame: %v", err)
		}
		return out, nil
	}

	return body, nil
}

// v22To24 maps a handful of common ID3v2.2 3-char frame IDs to their
// v2.3/2.4 4-char equivalents. IDs without a known mapping are passed
// through with a "2_" prefix so they still round-trip distinctly.
func v22To24(id string) string {
	switch id {
	case "TT2":
		return "TIT2"
	case "TT3":
		return "TIT3"
	case "TP1":
		return "TPE1"
	case "TP2":
		return "TPE2"
	case "TAL":
		return "TALB"
	case "TRK":
		return "TRCK"
	case "TPA":
		return "TPOS"
	case "TYE":
		return "TYER"
	case "TCO":
		return "TCON"
	case "TCM":
		return "TCOM"
	case "COM":
		return "COMM"
	case "TXX":
		return "TXXX"
	case "PIC":
		return "APIC"
	case "ULT":
		return "USLT"
	default:
		return "2_" + id
	}
}

// ApplyToTag maps a decoded frame onto tag, using ItemKey where a
// standard mapping exists and types.Unknown(id) otherwise.
func ApplyToTag(tag *types.Id3v2Tag, f rawFrame) {
	switch {
	case f.id == "APIC":
		if pic, ok := decodeAPIC(f.body); ok {
			tag.SetPictures(append(tag.Pictures(), pic))
		}
		return
	case f.id == "TXXX":
		desc, val, ok := decodeTXXX(f.body)
		if !ok {
			return
		}
		applyTXXX(tag, desc, val)
		return
	case f.id == "COMM":
		if text, ok := decodeCOMM(f.body); ok {
			tag.Set(types.Comment, text)
		}
		return
	case f.id == "CHAP":
		// Chapters are assembled by the caller (id3v2.go), which needs
		// the full frame list, not just the tag.
		return
	case strings.HasPrefix(f.id, "T"):
		text := decodeTextFrame(f.body)
		if key, ok := textFrameKey(f.id); ok {
			setOrAppend(tag, key, text)
		} else {
			tag.Set(types.Unknown(f.id), text)
		}
		return
	default:
		tag.Set(types.Unknown(f.id), string(f.body))
	}
}

func setOrAppend(tag *types.Id3v2Tag, key types.ItemKey, value string) {
	if value == "" {
		return
	}
	switch key {
	case types.Genre:
		tag.Set(key, append(tag.GetAll(key), value)...)
	default:
		tag.Set(key, value)
	}
}

func textFrameKey(id string) (types.ItemKey, bool) {
	switch id {
	case "TIT2":
		return types.TrackTitle, true
	case "TIT3":
		return types.TrackSubtitle, true
	case "TIT1":
		return types.Grouping, true
	case "TPE1":
		return types.TrackArtist, true
	case "TPE2":
		return types.AlbumArtist, true
	case "TALB":
		return types.AlbumTitle, true
	case "TCON":
		return types.Genre, true
	case "TYER", "TDRC":
		return types.RecordingDate, true
	case "TDOR":
		return types.OriginalDate, true
	case "TCOM":
		return types.Composer, true
	case "TPE3":
		return types.Conductor, true
	case "TRCK":
		return types.TrackNumber, true
	case "TPOS":
		return types.DiscNumber, true
	case "TCOP":
		return types.Copyright, true
	case "TPUB":
		return types.Publisher, true
	case "TSRC":
		return types.ISRC, true
	case "TENC":
		return types.EncodedBy, true
	case "TSSE":
		return types.Encoder, true
	default:
		return "", false
	}
}

// decodeTextFrame decodes a standard T*** frame: [encoding byte][text].
func decodeTextFrame(body []byte) string {
	if len(body) < 1 {
		return ""
	}
	return decodeText(body[1:], body[0])
}

// decodeTXXX decodes TXXX: [encoding][description\0][value].
func decodeTXXX(body []byte) (desc, value string, ok bool) {
	if len(body) < 2 {
		return "", "", false
	}
	enc := body[0]
	data := body[1:]
	idx := findNullTerminator(data, enc)
	if idx < 0 {
		return "", "", false
	}
	desc = decodeText(data[:idx], enc)
	value = decodeText(data[idx+terminatorSize(enc):], enc)
	return desc, value, true
}

func applyTXXX(tag *types.Id3v2Tag, desc, value string) {
	switch strings.ToLower(desc) {
	case "narrator":
		tag.Set(types.Narrator, value)
	case "series":
		tag.Set(types.Series, value)
	case "series part", "seriespart", "part", "series-part", "series position":
		tag.Set(types.SeriesPart, value)
	case "publisher":
		tag.Set(types.Publisher, value)
	case "isbn":
		tag.Set(types.ISBN, value)
	case "asin", "audible_asin":
		tag.Set(types.ASIN, value)
	case "replaygain_track_gain":
		tag.Set(types.ReplayGainTrackGain, value)
	case "replaygain_track_peak":
		tag.Set(types.ReplayGainTrackPeak, value)
	case "replaygain_album_gain":
		tag.Set(types.ReplayGainAlbumGain, value)
	case "replaygain_album_peak":
		tag.Set(types.ReplayGainAlbumPeak, value)
	default:
		tag.Set(types.Unknown("TXXX:"+desc), value)
	}
}

// decodeCOMM decodes COMM: [encoding][language(3)][short desc\0][text].
func decodeCOMM(body []byte) (string, bool) {
	if len(body) < 4 {
		return "", false
	}
	enc := body[0]
	data := body[4:]
	idx := findNullTerminator(data, enc)
	if idx < 0 {
		return decodeText(data, enc), true
	}
	return decodeText(data[idx+terminatorSize(enc):], enc), true
}

// decodeAPIC decodes APIC: [encoding][MIME\0][pic type][description\0][data].
func decodeAPIC(body []byte) (types.Picture, bool) {
	if len(body) < 2 {
		return types.Picture{}, false
	}
	enc := body[0]
	data := body[1:]

	mimeEnd := bytes.IndexByte(data, 0)
	if mimeEnd < 0 {
		return types.Picture{}, false
	}
	mime := string(data[:mimeEnd])
	data = data[mimeEnd+1:]

	if len(data) < 1 {
		return types.Picture{}, false
	}
	picType := types.PictureType(data[0])
	data = data[1:]

	descEnd := findNullTerminator(data, enc)
	if descEnd < 0 {
		return types.Picture{}, false
	}
	desc := decodeText(data[:descEnd], enc)
	imgData := data[descEnd+terminatorSize(enc):]

	return types.Picture{
		PicType:     picType,
		MIMEType:    mime,
		Description: desc,
		Data:        append([]byte(nil), imgData...),
	}, true
}

// --- text decoding, shared with CHAP subframe parsing in id3v2.go ---

func decodeText(data []byte, encoding byte) string {
	if len(data) == 0 {
		return ""
	}
	switch encoding {
	case 0:
		return string(data)
	case 1:
		return decodeUTF16(data)
	case 2:
		return decodeUTF16BE(data)
	case 3:
		if utf8.Valid(data) {
			return string(data)
		}
		return string(data)
	default:
		return string(data)
	}
}

func decodeUTF16(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	switch {
	case data[0] == 0xFF && data[1] == 0xFE:
		return decodeUTF16LE(data[2:])
	case data[0] == 0xFE && data[1] == 0xFF:
		return decodeUTF16BE(data[2:])
	default:
		return decodeUTF16BE(data)
	}
}

func decodeUTF16LE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}
	return string(utf16.Decode(u16))
}

func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2])<<8 | uint16(data[i*2+1])
	}
	return string(utf16.Decode(u16))
}

func findNullTerminator(data []byte, encoding byte) int {
	switch encoding {
	case 1, 2:
		for i := 0; i+1 < len(data); i += 2 {
			if data[i] == 0 && data[i+1] == 0 {
				return i
			}
		}
		return -1
	default:
		return bytes.IndexByte(data, 0)
	}
}

func terminatorSize(encoding byte) int {
	switch encoding {
	case 1, 2:
		return 2
	default:
		return 1
	}
}
