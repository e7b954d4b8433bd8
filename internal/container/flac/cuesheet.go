package flac

import (
	"fmt"
	"strings"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// cueSheet is the decoded form of a FLAC CUESHEET metadata block, kept
// unexported since only its chapter conversion escapes this package.
type cueSheet struct {
	mediaCatalogNumber string
	leadIn             uint64
	isCD               bool
	tracks             []cueTrack
}

type cueTrack struct {
	offset      uint64
	number      byte
	isrc        string
	isAudio     bool
	preEmphasis bool
}

// parseCueSheet parses a FLAC CUESHEET metadata block and converts it
// directly to chapters (spec §4.2's chapter support for FLAC, grounded
// on the teacher's internal/flac/cuesheet.go).
func parseCueSheet(sr *binutil.SafeReader, offset int64, length uint32, sampleRate int) ([]types.Chapter, error) {
	if length < 396 {
		return nil, fmt.Errorf("CUESHEET block too short: %d bytes (need at least 396)", length)
	}

	start := offset

	mcnBytes := make([]byte, 128)
	if err := sr.ReadAt(mcnBytes, offset, "media catalog number"); err != nil {
		return nil, fmt.Errorf("read MCN: %w", err)
	}
	mcn := strings.TrimRight(string(mcnBytes), "\x00")
	offset += 128

	leadIn, err := binutil.Read[uint64](sr, offset, "lead-in samples")
	if err != nil {
		return nil, fmt.Errorf("read lead-in: %w", err)
	}
	offset += 8

	flags, err := binutil.Read[uint8](sr, offset, "cuesheet flags")
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}
	isCD := flags&0x80 != 0
	offset += 1

	offset += 258 // reserved (the flags byte above carries the first 7 reserved bits)

	trackCount, err := binutil.Read[uint8](sr, offset, "track count")
	if err != nil {
		return nil, fmt.Errorf("read track count: %w", err)
	}
	offset += 1

	if bytesRead := offset - start; int64(length) < bytesRead {
		return nil, fmt.Errorf("CUESHEET block truncated")
	}

	maxOffset := start + int64(length)
	tracks := make([]cueTrack, 0, trackCount)
	for i := byte(0); i < trackCount; i++ {
		track, next, err := parseCueTrack(sr, offset, maxOffset)
		if err != nil {
			return nil, fmt.Errorf("parse track %d: %w", i, err)
		}
		tracks = append(tracks, track)
		offset = next
	}

	cs := cueSheet{mediaCatalogNumber: mcn, leadIn: leadIn, isCD: isCD, tracks: tracks}
	return cuesheetToChapters(cs, sampleRate), nil
}

func parseCueTrack(sr *binutil.SafeReader, offset, maxOffset int64) (cueTrack, int64, error) {
	if offset+36 > maxOffset {
		return cueTrack{}, 0, fmt.Errorf("track data exceeds block bounds")
	}

	trackOffset, err := binutil.Read[uint64](sr, offset, "track offset")
	if err != nil {
		return cueTrack{}, 0, fmt.Errorf("read track offset: %w", err)
	}
	offset += 8

	trackNumber, err := binutil.Read[uint8](sr, offset, "track number")
	if err != nil {
		return cueTrack{}, 0, fmt.Errorf("read track number: %w", err)
	}
	offset += 1

	isrcBytes := make([]byte, 12)
	if err := sr.ReadAt(isrcBytes, offset, "ISRC"); err != nil {
		return cueTrack{}, 0, fmt.Errorf("read ISRC: %w", err)
	}
	isrc := strings.TrimRight(string(isrcBytes), "\x00")
	offset += 12

	flags, err := binutil.Read[uint8](sr, offset, "track flags")
	if err != nil {
		return cueTrack{}, 0, fmt.Errorf("read track flags: %w", err)
	}
	isAudio := flags&0x80 == 0
	preEmphasis := flags&0x40 != 0
	offset += 1

	offset += 13 // reserved

	indexCount, err := binutil.Read[uint8](sr, offset, "index count")
	if err != nil {
		return cueTrack{}, 0, fmt.Errorf("read index count: %w", err)
	}
	offset += 1

	for j := byte(0); j < indexCount; j++ {
		if offset+12 > maxOffset {
			return cueTrack{}, 0, fmt.Errorf("index data exceeds block bounds")
		}
		offset += 12 // index offset(8) + index number(1) + reserved(3): unused downstream
		_ = j
	}

	return cueTrack{
		offset:      trackOffset,
		number:      trackNumber,
		isrc:        isrc,
		isAudio:     isAudio,
		preEmphasis: preEmphasis,
	}, offset, nil
}

// cuesheetToChapters converts a decoded CUESHEET into chapter markers,
// dropping non-audio tracks and the 170 lead-out marker and using the
// next track's (or the lead-out's) offset as each chapter's end time.
func cuesheetToChapters(cs cueSheet, sampleRate int) []types.Chapter {
	if len(cs.tracks) == 0 || sampleRate <= 0 {
		return nil
	}

	var audioTracks []cueTrack
	var leadOutOffset uint64
	for _, t := range cs.tracks {
		if t.number == 170 {
			leadOutOffset = t.offset
			continue
		}
		if t.isAudio {
			audioTracks = append(audioTracks, t)
		}
	}

	if len(audioTracks) == 0 {
		return nil
	}

	chapters := make([]types.Chapter, len(audioTracks))
	for i, track := range audioTracks {
		startTime := samplesToDuration(track.offset, sampleRate)

		var endTime time.Duration
		if i < len(audioTracks)-1 {
			endTime = samplesToDuration(audioTracks[i+1].offset, sampleRate)
		} else if leadOutOffset > 0 {
			endTime = samplesToDuration(leadOutOffset, sampleRate)
		}

		title := fmt.Sprintf("Track %02d", track.number)
		if track.isrc != "" {
			title = fmt.Sprintf("Track %02d (%s)", track.number, track.isrc)
		}

		chapters[i] = types.Chapter{
			Index:     i + 1,
			Title:     title,
			StartTime: startTime,
			EndTime:   endTime,
		}
	}

	return chapters
}

func samplesToDuration(samples uint64, sampleRate int) time.Duration {
	seconds := float64(samples) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second))
}
