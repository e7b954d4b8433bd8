package ogg

import (
	"encoding/binary"
	"fmt"
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
	"github.com/BSteffaniak/lofty-go/internal/vorbis"
)

// writer rewrites the comment packet of an Ogg stream in place. Real
// encoders always flush the identification/comment/setup packets as
// their own page group before any audio page (ogg_stream_flush in
// libvorbis/libopus), so the header region is a whole number of pages
// that never share a page with audio data. This writer relies on that
// convention: it relaces only the header packets and streams the
// remainder of the file through unchanged, patching just the page
// sequence number and checksum of any page whose position shifted.
type writer struct{}

// headerPacketCounts gives the number of header packets (including the
// replaced comment packet) each Ogg codec carries before audio begins.
var headerPacketCounts = map[types.FileType]int{
	types.Vorbis: 3, // identification, comment, setup
	types.Opus:   2, // OpusHead, OpusTags
	types.Speex:  2, // speex_header, comment
	types.Ogg:    2,
}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	sr := binutil.NewSafeReader(original, originalSize, "")

	needed, ok := headerPacketCounts[file.FileType]
	if !ok {
		needed = 2
	}

	// Accumulate whole pages until the header region's packets are
	// complete: the required packet count has been reassembled AND the
	// last page consumed terminates a packet (doesn't carry over into
	// what would otherwise be the first audio page).
	var pages []*page
	var packets [][]byte
	offset := int64(0)
	for offset < originalSize {
		pg, next, err := readPage(sr, offset)
		if err != nil {
			return fmt.Errorf("read Ogg page at %d: %w", offset, err)
		}
		pages = append(pages, pg)
		offset = next

		packets = extractPackets(pages)
		if len(packets) >= needed && pg.endsPacket {
			break
		}
	}
	if len(pages) == 0 {
		return fmt.Errorf("no Ogg pages found")
	}
	if len(packets) < needed {
		return fmt.Errorf("expected at least %d header packets, found %d", needed, len(packets))
	}

	comments, _ := file.TagByType(types.TagVorbisComments).(*types.VorbisComments)
	if comments == nil {
		comments = types.NewVorbisComments()
	}
	vendor := comments.Vendor
	if vendor == "" {
		vendor = "lofty-go"
	}

	newComment := buildCommentPacket(file.FileType, vendor, comments)

	headerPackets := make([][]byte, needed)
	copy(headerPackets, packets[:needed])
	headerPackets[1] = newComment

	serial := pages[0].serialNumber

	identPages := lacePackets(headerPackets[:1])
	restPages := lacePackets(headerPackets[1:])

	seq := uint32(0)
	var out []byte
	for i, bp := range identPages {
		headerType := byte(0)
		if i == 0 {
			headerType |= 0x02 // BOS
		}
		if bp.continued {
			headerType |= 0x01
		}
		out = append(out, buildPage(headerType, 0, serial, seq, bp.segments, bp.data)...)
		seq++
	}
	for _, bp := range restPages {
		headerType := byte(0)
		if bp.continued {
			headerType |= 0x01
		}
		out = append(out, buildPage(headerType, 0, serial, seq, bp.segments, bp.data)...)
		seq++
	}

	if _, err := w.Write(out); err != nil {
		return err
	}

	oldPageCount := int64(len(pages))
	newPageCount := int64(len(identPages) + len(restPages))
	delta := newPageCount - oldPageCount

	if delta == 0 {
		_, err := io.Copy(w, io.NewSectionReader(original, offset, originalSize-offset))
		return err
	}

	for off := offset; off < originalSize; {
		pg, next, err := readPage(sr, off)
		if err != nil {
			return fmt.Errorf("read trailing Ogg page at %d: %w", off, err)
		}
		raw := make([]byte, next-off)
		if err := sr.ReadAt(raw, off, "trailing Ogg page"); err != nil {
			return err
		}

		newSeq := pg.sequenceNumber + uint32(delta)
		binary.LittleEndian.PutUint32(raw[18:22], newSeq)
		raw[22], raw[23], raw[24], raw[25] = 0, 0, 0, 0
		crc := pageCRC(raw)
		binary.LittleEndian.PutUint32(raw[22:26], crc)

		if _, err := w.Write(raw); err != nil {
			return err
		}
		off = next
	}

	return nil
}

// buildCommentPacket serializes a VorbisComments tag into the
// "<magic><vendor-len><vendor><count><len,value>*" layout shared by
// Vorbis, Opus, and Speex comment packets (spec §4.2).
func buildCommentPacket(ft types.FileType, vendor string, comments *types.VorbisComments) []byte {
	var buf []byte

	switch ft {
	case types.Opus:
		buf = append(buf, "OpusTags"...)
	case types.Speex:
		// Speex has no distinct comment-packet magic beyond its framing;
		// the comment packet here is the bare vendor+list structure.
	default:
		buf = append(buf, 0x03)
		buf = append(buf, "vorbis"...)
	}

	writeUint32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	writeUint32(uint32(len(vendor)))
	buf = append(buf, vendor...)

	values := vorbis.Emit(comments)
	writeUint32(uint32(len(values)))
	for _, v := range values {
		writeUint32(uint32(len(v)))
		buf = append(buf, v...)
	}

	return buf
}

// buildPage assembles one complete Ogg page (header, segment table,
// payload) with its checksum computed over the whole page.
func buildPage(headerType byte, granule int64, serial, seq uint32, segs, data []byte) []byte {
	buf := make([]byte, 0, 27+len(segs)+len(data))
	buf = append(buf, pageMagic...)
	buf = append(buf, 0) // version
	buf = append(buf, headerType)

	var granuleBytes [8]byte
	binary.LittleEndian.PutUint64(granuleBytes[:], uint64(granule))
	buf = append(buf, granuleBytes[:]...)

	var serialBytes, seqBytes [4]byte
	binary.LittleEndian.PutUint32(serialBytes[:], serial)
	binary.LittleEndian.PutUint32(seqBytes[:], seq)
	buf = append(buf, serialBytes[:]...)
	buf = append(buf, seqBytes[:]...)

	buf = append(buf, 0, 0, 0, 0) // checksum placeholder
	buf = append(buf, byte(len(segs)))
	buf = append(buf, segs...)
	buf = append(buf, data...)

	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], pageCRC(buf))
	copy(buf[22:26], crcBytes[:])

	return buf
}

func init() {
	registry.RegisterWriter(types.Ogg, &writer{})
	registry.RegisterWriter(types.Vorbis, &writer{})
	registry.RegisterWriter(types.Opus, &writer{})
	registry.RegisterWriter(types.Speex, &writer{})
}
