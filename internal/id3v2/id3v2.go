package id3v2

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"slices"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// ReadResult is everything a Read call against an ID3v2 tag can produce.
type ReadResult struct {
	Tag      *types.Id3v2Tag
	TagLen   int64 // total on-disk size, header+footer included
	Chapters []types.Chapter
	Warnings []types.Warning
}

// Read parses the ID3v2 tag starting at offset 0 of sr. allocLimit is
// ParseOptions.AllocationLimit (0 means unbounded), consulted before
// each frame body is allocated (spec §4.3).
func Read(sr *binutil.SafeReader, allocLimit int64) (ReadResult, error) {
	h, err := ReadHeader(sr)
	if err != nil {
		return ReadResult{}, err
	}

	frameStart, _, err := skipExtendedHeader(sr, h)
	if err != nil {
		return ReadResult{}, err
	}

	tagEnd := int64(HeaderLen) + int64(h.Size)
	frames, warnings, err := readFrames(sr, h, frameStart, tagEnd, allocLimit)
	if err != nil {
		return ReadResult{}, err
	}

	tag := types.NewId3v2Tag()
	tag.Version = int(h.Version)

	var chapFrames []rawFrame
	for _, f := range frames {
		if f.id == "CHAP" {
			chapFrames = append(chapFrames, f)
			continue
		}
		ApplyToTag(tag, f)
	}

	chapters := buildChapters(chapFrames)

	return ReadResult{
		Tag:      tag,
		TagLen:   h.TagLen(),
		Chapters: chapters,
		Warnings: warnings,
	}, nil
}

// HasTag reports whether sr begins with an ID3v2 magic, without fully
// parsing the tag.
func HasTag(sr *binutil.SafeReader) bool {
	buf := make([]byte, 3)
	if err := sr.ReadAt(buf, 0, "ID3v2 magic probe"); err != nil {
		return false
	}
	return string(buf) == Magic
}

// chapterData is the intermediate form of a CHAP frame before sorting
// and index assignment.
type chapterData struct {
	startTime uint32
	endTime   uint32
	title     string
}

// buildChapters decodes CHAP frames: [element id]\0[start(4)][end(4)]
// [startOffset(4)][endOffset(4)][subframes...], pulling the title from a
// nested TIT2 subframe when present (spec's audiobook chapter support,
// supplemented from the teacher's internal/mp3/id3v2.go).
func buildChapters(frames []rawFrame) []types.Chapter {
	if len(frames) == 0 {
		return nil
	}

	parsed := make([]chapterData, 0, len(frames))
	for _, f := range frames {
		data := f.body
		nullIdx := bytes.IndexByte(data, 0)
		if nullIdx < 0 {
			continue
		}
		elementID := string(data[:nullIdx])
		data = data[nullIdx+1:]
		if len(data) < 16 {
			continue
		}

		start := binary.BigEndian.Uint32(data[0:4])
		end := binary.BigEndian.Uint32(data[4:8])
		title := elementID
		if t, ok := chapterSubframeTitle(data[16:]); ok {
			title = t
		}

		parsed = append(parsed, chapterData{startTime: start, endTime: end, title: title})
	}

	slices.SortFunc(parsed, func(a, b chapterData) int {
		return cmp.Compare(a.startTime, b.startTime)
	})

	result := make([]types.Chapter, len(parsed))
	for i, ch := range parsed {
		result[i] = types.Chapter{
			Index:     i + 1,
			Title:     ch.title,
			StartTime: time.Duration(ch.startTime) * time.Millisecond,
			EndTime:   time.Duration(ch.endTime) * time.Millisecond,
		}
	}
	return result
}

func chapterSubframeTitle(sub []byte) (string, bool) {
	if len(sub) < 10 {
		return "", false
	}
	id := string(sub[0:4])
	if id != "TIT2" {
		return "", false
	}
	size := binary.BigEndian.Uint32(sub[4:8])
	if len(sub) < int(10+size) || size == 0 {
		return "", false
	}
	body := sub[10 : 10+size]
	return decodeTextFrame(body), true
}
