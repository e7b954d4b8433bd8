// Package framesync implements the MPEG/AAC frame-sync scanner: finding
// the 11-bit `1111 1111 111x` pattern within a bounded junk window and
// disambiguating MPEG audio from AAC-ADTS by the layer bits that follow,
// grounded on original_source/src/probe.rs's check_mpeg_or_aac and
// search_for_frame_sync (spec §4.1).
package framesync

import (
	"github.com/BSteffaniak/lofty-go/internal/binary"
)

// Kind is the result of disambiguating a located frame sync.
type Kind int

const (
	KindNone Kind = iota
	KindMPEG
	KindAAC
)

// Find scans [start, start+maxJunk] for the frame sync pattern and
// returns its offset and disambiguated Kind. Returns KindNone if no sync
// is found within the window.
func Find(sr *binary.SafeReader, start, size, maxJunk int64) (offset int64, kind Kind, err error) {
	end := start + maxJunk
	if end > size-2 {
		end = size - 2
	}

	buf := make([]byte, 2)
	for off := start; off <= end; off++ {
		if err := sr.ReadAt(buf, off, "frame sync candidate"); err != nil {
			return 0, KindNone, nil
		}
		if IsSync(buf) {
			return off, Disambiguate(buf), nil
		}
	}
	return 0, KindNone, nil
}

// IsSync reports whether the two bytes begin an 11-bit frame sync:
// byte0 == 0xFF and the top 3 bits of byte1 are set.
func IsSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// Disambiguate classifies a located sync as MPEG audio or AAC-ADTS by
// examining the second sync byte: if bit 0x10 is set and bits 0x06 are
// clear, it's ADTS (MPEG version bit set, layer bits reserved-zero);
// otherwise it's a plain MPEG audio frame header.
func Disambiguate(b []byte) Kind {
	if !IsSync(b) {
		return KindNone
	}
	if b[1]&0x10 != 0 && b[1]&0x06 == 0 {
		return KindAAC
	}
	return KindMPEG
}

// ReadHeaderWord reads the 4-byte MPEG/ADTS frame header as a big-endian
// uint32, bounds-checked against the file.
func ReadHeaderWord(sr *binary.SafeReader, off int64) (uint32, error) {
	return binary.Read[uint32](sr, off, "frame header")
}
