// Package ogg implements the Ogg page/packet container reader shared by
// Vorbis, Opus, and Speex (spec §4.2 "Ogg Vorbis/Opus/Speex"): page
// parsing, packet reassembly across continuation pages, and codec
// disambiguation from the first packet's magic, followed by per-codec
// identification/comment header parsing. Grounded on the teacher's
// internal/ogg package, generalized from its Vorbis/Opus-only dispatch
// to also cover Speex (spec's third Ogg codec) and from its flattened
// types.File onto types.TaggedFile with a *types.VorbisComments.
package ogg

import (
	"fmt"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
)

// page is a single Ogg page: header fields plus its payload bytes.
type page struct {
	headerType      byte
	granulePosition int64
	serialNumber    uint32
	sequenceNumber  uint32
	data            []byte
	segments        []byte
	// endsPacket is true when the page's last segment table entry is
	// shorter than 255, meaning the last packet on this page terminates
	// here rather than continuing onto the next page.
	endsPacket bool
}

const pageMagic = "OggS"

// readPage reads one Ogg page at offset, returning the page and the
// offset of the page that follows it.
func readPage(sr *binutil.SafeReader, offset int64) (*page, int64, error) {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, offset, "Ogg magic"); err != nil {
		return nil, 0, err
	}
	if string(magic) != pageMagic {
		return nil, 0, fmt.Errorf("invalid Ogg page at offset %d", offset)
	}

	version, err := binutil.Read[uint8](sr, offset+4, "version")
	if err != nil {
		return nil, 0, err
	}
	if version != 0 {
		return nil, 0, fmt.Errorf("unsupported Ogg version: %d", version)
	}

	headerType, err := binutil.Read[uint8](sr, offset+5, "header type")
	if err != nil {
		return nil, 0, err
	}

	granule, err := binutil.ReadLE[uint64](sr, offset+6, "granule position")
	if err != nil {
		return nil, 0, err
	}

	serial, err := binutil.ReadLE[uint32](sr, offset+14, "serial number")
	if err != nil {
		return nil, 0, err
	}

	sequence, err := binutil.ReadLE[uint32](sr, offset+18, "sequence number")
	if err != nil {
		return nil, 0, err
	}

	segmentCount, err := binutil.Read[uint8](sr, offset+26, "segment count")
	if err != nil {
		return nil, 0, err
	}

	segments := make([]byte, segmentCount)
	if err := sr.ReadAt(segments, offset+27, "segment table"); err != nil {
		return nil, 0, err
	}

	dataSize := 0
	for _, seg := range segments {
		dataSize += int(seg)
	}

	data := make([]byte, dataSize)
	dataOffset := offset + 27 + int64(segmentCount)
	if err := sr.ReadAt(data, dataOffset, "page data"); err != nil {
		return nil, 0, err
	}

	p := &page{
		headerType:      headerType,
		granulePosition: int64(granule),
		serialNumber:    serial,
		sequenceNumber:  sequence,
		data:            data,
		segments:        segments,
		endsPacket:      segmentCount == 0 || segments[segmentCount-1] < 255,
	}

	return p, dataOffset + int64(dataSize), nil
}

// extractPackets reassembles packets from a run of pages. The segment
// table is authoritative for packet boundaries: a segment value under
// 255 terminates the packet it belongs to, while a run of 255s (even
// across a page boundary) means the packet continues. This needs no
// reference to the header-type continuation bit, since the segment
// table already encodes the same fact.
func extractPackets(pages []*page) [][]byte {
	var packets [][]byte
	var current []byte

	for _, p := range pages {
		offset := 0
		for _, seg := range p.segments {
			current = append(current, p.data[offset:offset+int(seg)]...)
			offset += int(seg)
			if seg < 255 {
				packets = append(packets, current)
				current = nil
			}
		}
	}

	if len(current) > 0 {
		packets = append(packets, current)
	}

	return packets
}

// findLastGranulePosition scans backward from the end of the file for
// the last page's "OggS" marker and returns its granule position, used
// to derive duration (granule is in samples at the stream's sample
// rate).
func findLastGranulePosition(sr *binutil.SafeReader, fileSize int64) (int64, error) {
	searchStart := fileSize - 65536
	if searchStart < 0 {
		searchStart = 0
	}

	searchSize := fileSize - searchStart
	buf := make([]byte, searchSize)
	if err := sr.ReadAt(buf, searchStart, "search region"); err != nil {
		return 0, err
	}

	lastOggPos := int64(-1)
	for i := len(buf) - 4; i >= 0; i-- {
		if buf[i] == 'O' && buf[i+1] == 'g' && buf[i+2] == 'g' && buf[i+3] == 'S' {
			lastOggPos = searchStart + int64(i)
			break
		}
	}

	if lastOggPos < 0 {
		return 0, fmt.Errorf("could not find last Ogg page")
	}

	granule, err := binutil.ReadLE[uint64](sr, lastOggPos+6, "granule position")
	if err != nil {
		return 0, err
	}

	return int64(granule), nil
}
