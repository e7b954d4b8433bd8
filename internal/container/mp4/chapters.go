package mp4

import (
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// parseChplChapters extracts chapter markers from the Nero `chpl` atom
// at moov/udta/chpl, adapted from the teacher's parseChplChapters. The
// teacher also tried a QuickTime text-track chapter fallback (tref/chap
// plus a full stts/stsz/stco sample-table walk of a second track); that
// path is not carried over here; chpl covers the common tagging tools
// (Chapter and Verse, Nero AAC encoder) and it keeps chapter parsing
// within the tag-model the rest of this package already builds, rather
// than requiring a second independent sample-table reader.
func parseChplChapters(sr *binutil.SafeReader, moovAtom *atom, fileSize int64, fileDuration time.Duration) ([]types.Chapter, error) {
	udtaAtom, err := findAtom(sr, moovAtom.DataOffset(), moovAtom.DataOffset()+int64(moovAtom.DataSize()), fileSize, "udta")
	if err != nil {
		return nil, nil
	}

	chplAtom, err := findAtom(sr, udtaAtom.DataOffset(), udtaAtom.DataOffset()+int64(udtaAtom.DataSize()), fileSize, "chpl")
	if err != nil {
		return nil, nil
	}

	offset := chplAtom.DataOffset() + 4 // version + flags
	offset += 4                         // reserved

	chapterCount, err := binutil.Read[uint8](sr, offset, "chapter count")
	if err != nil {
		return nil, err
	}
	offset += 1

	if chapterCount == 0 {
		return nil, nil
	}

	chapters := make([]types.Chapter, 0, chapterCount)

	for i := uint8(0); i < chapterCount; i++ {
		startTime100ns, err := binutil.Read[uint64](sr, offset, "chapter start time")
		if err != nil {
			return chapters, err
		}
		offset += 8

		titleLen, err := binutil.Read[uint8](sr, offset, "chapter title length")
		if err != nil {
			return chapters, err
		}
		offset += 1

		var title string
		if titleLen > 0 {
			titleBytes := make([]byte, titleLen)
			if err := sr.ReadAt(titleBytes, offset, "chapter title"); err != nil {
				return chapters, err
			}
			offset += int64(titleLen)
			title = string(titleBytes)
		}

		chapters = append(chapters, types.Chapter{
			Index:     int(i) + 1,
			Title:     title,
			StartTime: time.Duration(startTime100ns * 100),
		})
	}

	for i := range chapters {
		if i < len(chapters)-1 {
			chapters[i].EndTime = chapters[i+1].StartTime
		} else {
			chapters[i].EndTime = fileDuration
		}
	}

	return chapters, nil
}
