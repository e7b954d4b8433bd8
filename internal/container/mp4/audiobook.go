package mp4

import (
	"strconv"
	"strings"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/parsing"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// freeformKeyMap maps the iTunes "----" freeform atom's name field (once
// lowercased) onto the ItemKey audiobook tools (the Apple Books pipeline,
// most third-party m4b encoders) commonly store there. "Series Part",
// "Series Position", "Part", and "Volume" are deliberately absent: those
// feed resolveSeriesPart's fallback chain instead of being set directly,
// since a raw custom-atom value is often less reliable than the
// track-number or title-text fallbacks below it.
var freeformKeyMap = map[string]types.ItemKey{
	"narrator":  types.Narrator,
	"series":    types.Series,
	"publisher": types.Publisher,
	"isbn":      types.ISBN,
	"asin":      types.ASIN,
}

// extractFreeformAtom parses a "----" atom's mean/name/data triple and, if
// the name field maps onto a known audiobook ItemKey, sets it on tag.
// customTags collects every name/value pair seen (including ones not in
// freeformKeyMap) so resolveSeriesPart can consult series-position-shaped
// fields afterward.
func extractFreeformAtom(sr *binutil.SafeReader, customAtom *atom, fileSize int64, tag *types.Mp4Ilst, customTags map[string]string) {
	offset := customAtom.DataOffset()
	end := offset + int64(customAtom.DataSize())

	var fieldName, value string

	for offset < end {
		child, err := readAtomHeader(sr, offset, fileSize)
		if err != nil {
			break
		}

		switch child.Type {
		case "name":
			dataOffset := child.DataOffset() + 4
			dataSize := int64(child.DataSize()) - 4
			if dataSize > 0 {
				buf := make([]byte, dataSize)
				if err := sr.ReadAt(buf, dataOffset, "freeform name"); err == nil {
					fieldName = string(buf)
				}
			}
		case "data":
			dataOffset := child.DataOffset() + 8
			dataSize := int64(child.DataSize()) - 8
			if dataSize > 0 {
				buf := make([]byte, dataSize)
				if err := sr.ReadAt(buf, dataOffset, "freeform data"); err == nil {
					value = strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
				}
			}
		}

		if child.Size == 0 {
			break
		}
		offset += int64(child.Size)
	}

	if fieldName == "" || value == "" {
		return
	}

	customTags[fieldName] = value

	if key, ok := freeformKeyMap[strings.ToLower(fieldName)]; ok {
		tag.Set(key, value)
	}
}

// resolveSeriesPart fills in types.SeriesPart when a Series was found but
// no part number came with it, trying progressively less direct sources:
// a dedicated custom atom, the track number (when it looks like a series
// position rather than an album track), then text buried in the title or
// album, then the containing directory name.
func resolveSeriesPart(tag *types.Mp4Ilst, path string, customTags map[string]string) string {
	for _, key := range []string{"Series Part", "Series Position", "Part", "Volume"} {
		if part := customTags[key]; part != "" {
			return part
		}
	}

	if num, _, ok := likelySeriesPosition(tag); ok {
		return strconv.Itoa(num)
	}

	if part := parsing.ExtractSeriesPartFromText(tag.Get(types.TrackTitle)); part != "" {
		return part
	}
	if part := parsing.ExtractSeriesPartFromText(tag.Get(types.AlbumTitle)); part != "" {
		return part
	}

	return parsing.ExtractSeriesPartFromPath(path)
}

// likelySeriesPosition treats a track number as a series position when
// there's no track total or the total is implausibly small for a regular
// album, the pattern single-file-per-book audiobook libraries (one
// "track" per book in a series) tend to produce.
func likelySeriesPosition(tag *types.Mp4Ilst) (num, total int, ok bool) {
	n, _ := strconv.Atoi(tag.Get(types.TrackNumber))
	t, _ := strconv.Atoi(tag.Get(types.TrackTotal))
	if n <= 0 {
		return 0, 0, false
	}
	return n, t, t == 0 || t <= 3
}
