// Package apev2 provides shared APEv2 tag parsing and emission, used by
// the APE, Musepack, and WavPack container readers alike (spec §4.2:
// "APEv2 tags sit at end-of-file with a 32-byte footer whose flags
// indicate presence of a mirrored header. ID3v1 may follow APE tags at
// EOF."), mirroring the shared internal/vorbis and internal/id3v2
// engines' role for their own formats.
package apev2

import (
	"encoding/binary"
	"strconv"
	"strings"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

const (
	preamble   = "APETAGEX"
	footerSize = 32
	id3v1Size  = 128

	flagHasHeader  = 1 << 31
	flagIsHeader   = 1 << 29
	itemTypeMask   = 0x6
	itemTypeUTF8   = 0x0
	itemTypeBinary = 0x2
)

// Result is a parsed APEv2 tag plus the byte region it occupied, so a
// writer can splice a rebuilt tag into exactly that region.
type Result struct {
	Tag         *types.ApeTag
	TagOffset   int64 // start of the tag region (header if present, else first item)
	TagEnd      int64 // end of the tag region (exclusive), i.e. the footer's end
	HasID3v1    bool
	ID3v1Offset int64
}

// Find locates and parses an end-of-file APEv2 tag. It tolerates a
// trailing 128-byte ID3v1 tag between the APEv2 footer and the true EOF,
// per spec. Returns (nil, false, nil) when no APEv2 footer is present,
// which is not itself an error.
func Find(sr *binutil.SafeReader, fileSize int64, allocLimit int64) (*Result, bool, error) {
	footerOffset := fileSize - footerSize
	hasID3v1 := false
	var id3v1Offset int64

	if footerOffset >= id3v1Size {
		maybeID3 := make([]byte, 3)
		if err := sr.ReadAt(maybeID3, fileSize-id3v1Size, "ID3v1 tag marker"); err == nil && string(maybeID3) == "TAG" {
			hasID3v1 = true
			id3v1Offset = fileSize - id3v1Size
			footerOffset = id3v1Offset - footerSize
		}
	}

	if footerOffset < 0 {
		return nil, false, nil
	}

	magic := make([]byte, 8)
	if err := sr.ReadAt(magic, footerOffset, "APEv2 preamble"); err != nil {
		return nil, false, nil
	}
	if string(magic) != preamble {
		return nil, false, nil
	}

	version, err := binutil.ReadLE[uint32](sr, footerOffset+8, "APEv2 version")
	if err != nil {
		return nil, false, err
	}
	tagSize, err := binutil.ReadLE[uint32](sr, footerOffset+12, "APEv2 tag size")
	if err != nil {
		return nil, false, err
	}
	itemCount, err := binutil.ReadLE[uint32](sr, footerOffset+16, "APEv2 item count")
	if err != nil {
		return nil, false, err
	}
	flags, err := binutil.ReadLE[uint32](sr, footerOffset+20, "APEv2 flags")
	if err != nil {
		return nil, false, err
	}

	if allocLimit > 0 && int64(tagSize) > allocLimit {
		return nil, false, types.NewError(types.ErrTooMuchData, sr.Path(), "APEv2 tag size %d exceeds allocation limit", tagSize)
	}

	// tagSize covers everything from the first item through the footer
	// (and the mirrored header too, on the versions that report it that
	// way); itemsStart is footerOffset - (tagSize - footerSize) when the
	// footer alone reported tagSize, or footerOffset - tagSize + footerSize
	// when a header is present and already counted. Either way items run
	// from itemsStart to footerOffset.
	itemsStart := footerOffset - int64(tagSize) + footerSize

	tagRegionStart := itemsStart
	if flags&flagHasHeader != 0 {
		tagRegionStart -= footerSize
	}
	if tagRegionStart < 0 {
		return nil, false, types.NewError(types.ErrSizeMismatch, sr.Path(), "APEv2 tag size %d overruns start of file", tagSize)
	}

	tag := types.NewApeTag()
	pos := itemsStart
	itemsEnd := footerOffset

	for i := uint32(0); i < itemCount && pos < itemsEnd; i++ {
		valueSize, err := binutil.ReadLE[uint32](sr, pos, "APEv2 item value size")
		if err != nil {
			break
		}
		itemFlags, err := binutil.ReadLE[uint32](sr, pos+4, "APEv2 item flags")
		if err != nil {
			break
		}
		pos += 8

		keyBuf := make([]byte, 0, 32)
		for pos < itemsEnd {
			b := make([]byte, 1)
			if err := sr.ReadAt(b, pos, "APEv2 item key byte"); err != nil {
				break
			}
			pos++
			if b[0] == 0 {
				break
			}
			keyBuf = append(keyBuf, b[0])
		}
		key := string(keyBuf)

		if allocLimit > 0 && int64(valueSize) > allocLimit {
			return nil, false, types.NewError(types.ErrTooMuchData, sr.Path(), "APEv2 item %q value size %d exceeds allocation limit", key, valueSize)
		}

		value := make([]byte, valueSize)
		if valueSize > 0 {
			if err := sr.ReadAt(value, pos, "APEv2 item value"); err != nil {
				break
			}
		}
		pos += int64(valueSize)

		applyItem(tag, key, itemFlags, value)
	}

	_ = version
	return &Result{
		Tag:         tag,
		TagOffset:   tagRegionStart,
		TagEnd:      footerOffset + footerSize,
		HasID3v1:    hasID3v1,
		ID3v1Offset: id3v1Offset,
	}, true, nil
}

// applyItem decodes one APEv2 item (UTF-8 text items may hold multiple
// null-separated values per spec's Vorbis-Comment-adjacent multi-value
// convention; binary items, e.g. "Cover Art (Front)", become a Picture).
func applyItem(tag *types.ApeTag, key string, itemFlags uint32, value []byte) {
	switch itemFlags & itemTypeMask {
	case itemTypeBinary:
		if strings.HasPrefix(strings.ToLower(key), "cover art") {
			if pic, ok := decodeCoverArt(value); ok {
				tag.SetPictures(append(tag.Pictures(), pic))
			}
			return
		}
		tag.Set(types.Unknown(key), string(value))
	default:
		upperKey := strings.ToUpper(key)
		mapped, ok := apeKeyMap[upperKey]
		if !ok {
			mapped = types.Unknown(key)
		}
		values := strings.Split(string(value), "\x00")
		tag.Set(mapped, values...)

		if (mapped == types.TrackNumber || mapped == types.DiscNumber) && len(values) == 1 {
			if num, total := ParseTrackNumber(values[0]); total > 0 {
				tag.Set(mapped, strconv.Itoa(num))
				if mapped == types.TrackNumber {
					tag.Set(types.TrackTotal, strconv.Itoa(total))
				} else {
					tag.Set(types.DiscTotal, strconv.Itoa(total))
				}
			}
		}
	}
}

// decodeCoverArt splits a binary "Cover Art (Front)"-style item into its
// null-terminated filename (ignored) and the image bytes, sniffing the
// MIME type from the image bytes' own magic number.
func decodeCoverArt(value []byte) (types.Picture, bool) {
	idx := -1
	for i, b := range value {
		if b == 0 {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(value) {
		return types.Picture{}, false
	}
	data := value[idx+1:]
	return types.Picture{MIMEType: sniffImageMIME(data), Data: data}, true
}

func sniffImageMIME(data []byte) string {
	switch {
	case len(data) >= 8 && data[0] == 0x89 && data[1] == 'P':
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// apeKeyMap maps APEv2's human-readable (case-insensitive) item keys
// onto ItemKeys.
var apeKeyMap = map[string]types.ItemKey{
	"TITLE":              types.TrackTitle,
	"SUBTITLE":           types.TrackSubtitle,
	"ARTIST":             types.TrackArtist,
	"ALBUM":              types.AlbumTitle,
	"ALBUM ARTIST":       types.AlbumArtist,
	"YEAR":               types.Year,
	"TRACK":              types.TrackNumber,
	"DISC":               types.DiscNumber,
	"GENRE":              types.Genre,
	"COMPOSER":           types.Composer,
	"CONDUCTOR":          types.Conductor,
	"COMMENT":            types.Comment,
	"LYRICS":             types.Lyrics,
	"COPYRIGHT":          types.Copyright,
	"PUBLISHER":          types.Publisher,
	"LABEL":              types.Label,
	"ISBN":               types.ISBN,
	"ISRC":               types.ISRC,
	"BARCODE":            types.Barcode,
	"CATALOGNUMBER":      types.CatalogNumber,
	"MUSICBRAINZ_TRACKID": types.MusicBrainzTrackID,
	"MUSICBRAINZ_ALBUMID": types.MusicBrainzAlbumID,
	"MUSICBRAINZ_ARTISTID": types.MusicBrainzArtistID,
}

// reverseAPEKeyMap gives the canonical item key name for each ItemKey
// this package writes, built explicitly rather than inverted for the
// same reason internal/container/mp4's reverseAtomKeyMap is.
var reverseAPEKeyMap = map[types.ItemKey]string{
	types.TrackTitle:           "Title",
	types.TrackSubtitle:        "Subtitle",
	types.TrackArtist:          "Artist",
	types.AlbumTitle:           "Album",
	types.AlbumArtist:          "Album Artist",
	types.Year:                 "Year",
	types.TrackNumber:          "Track",
	types.DiscNumber:           "Disc",
	types.Genre:                "Genre",
	types.Composer:             "Composer",
	types.Conductor:            "Conductor",
	types.Comment:              "Comment",
	types.Lyrics:               "Lyrics",
	types.Copyright:            "Copyright",
	types.Publisher:            "Publisher",
	types.Label:                "Label",
	types.ISBN:                 "ISBN",
	types.ISRC:                 "ISRC",
	types.Barcode:              "Barcode",
	types.CatalogNumber:        "CatalogNumber",
	types.MusicBrainzTrackID:   "MUSICBRAINZ_TRACKID",
	types.MusicBrainzAlbumID:  "MUSICBRAINZ_ALBUMID",
	types.MusicBrainzArtistID: "MUSICBRAINZ_ARTISTID",
}

// Build serializes tag into a complete APEv2 tag region: a mirrored
// 32-byte header, every item, and the 32-byte footer, matching the
// layout Find parses (always emitting the optional header, since it
// costs 32 bytes and lets a reader without seek-to-EOF still validate
// the tag from the front).
func Build(tag *types.ApeTag) []byte {
	var items []byte
	count := 0

	for key, values := range tag.Items() {
		name, ok := reverseAPEKeyMap[key]
		if !ok {
			if !strings.HasPrefix(string(key), "UNKNOWN:") {
				continue
			}
			name = strings.TrimPrefix(string(key), "UNKNOWN:")
		}
		value := strings.Join(values, "\x00")
		items = append(items, buildItem(name, itemTypeUTF8, []byte(value))...)
		count++
	}

	for i, pic := range tag.Pictures() {
		name := "Cover Art (Front)"
		if i > 0 {
			name = "Cover Art (Other)"
		}
		filename := "cover" + extensionFor(pic.MIMEType)
		value := append(append([]byte(filename), 0), pic.Data...)
		items = append(items, buildItem(name, itemTypeBinary, value)...)
		count++
	}

	totalWithFooter := len(items) + footerSize
	header := buildFooterOrHeader(uint32(totalWithFooter), uint32(count), flagHasHeader|flagIsHeader)
	footer := buildFooterOrHeader(uint32(totalWithFooter), uint32(count), flagHasHeader)

	out := make([]byte, 0, len(header)+len(items)+len(footer))
	out = append(out, header...)
	out = append(out, items...)
	out = append(out, footer...)
	return out
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}

func buildItem(key string, itemType uint32, value []byte) []byte {
	buf := make([]byte, 8, 8+len(key)+1+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(value)))
	binary.LittleEndian.PutUint32(buf[4:8], itemType)
	buf = append(buf, []byte(key)...)
	buf = append(buf, 0)
	buf = append(buf, value...)
	return buf
}

func buildFooterOrHeader(tagSize, itemCount, flags uint32) []byte {
	buf := make([]byte, footerSize)
	copy(buf[0:8], preamble)
	binary.LittleEndian.PutUint32(buf[8:12], 2000) // APEv2
	binary.LittleEndian.PutUint32(buf[12:16], tagSize)
	binary.LittleEndian.PutUint32(buf[16:20], itemCount)
	binary.LittleEndian.PutUint32(buf[20:24], flags)
	return buf
}

// ParseTrackNumber is a convenience a container reader can use when it
// needs the numeric track number rather than its string form (APEv2
// stores "Track" as a plain decimal, optionally "n/total").
func ParseTrackNumber(s string) (num, total int) {
	parts := strings.SplitN(s, "/", 2)
	num, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		total, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return num, total
}
