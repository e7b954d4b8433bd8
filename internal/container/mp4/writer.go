package mp4

import (
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// writer rewrites the moov/udta/meta/ilst atom in place. No example
// repo writes MP4 boxes, so this is grounded directly on ISO/IEC
// 14496-12's box model plus the teacher's box-walking helpers: buffer
// just the moov box (bounded by its own declared size, not the whole
// file), splice the new ilst payload into that buffer, patch the size
// fields of ilst's ancestors (meta, udta, moov) for the length delta,
// and — since growing or shrinking moov shifts every byte after it,
// including a leading mdat's absolute position — patch every trak's
// stco/co64 chunk-offset table by that same delta so sample data is
// still found where the rewritten file actually put it.
type writer struct{}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	sr := binutil.NewSafeReader(original, originalSize, "")

	moovAtom, err := findAtom(sr, 0, originalSize, originalSize, "moov")
	if err != nil {
		return err
	}

	ilstAtom, metaAtom, err := findIlst(sr, moovAtom, originalSize)
	var udtaAtom *atom
	if err == nil {
		udtaAtom, err = findAtom(sr, moovAtom.DataOffset(), moovAtom.DataOffset()+int64(moovAtom.DataSize()), originalSize, "udta")
	}
	if err != nil {
		return err
	}

	tag, _ := file.TagByType(types.TagMp4Ilst).(*types.Mp4Ilst)
	if tag == nil {
		tag = types.NewMp4Ilst()
	}
	newIlst := buildIlstAtom(tag)
	delta := int64(len(newIlst)) - int64(ilstAtom.Size)

	mdatOffset, hasMdat := findTopLevelMdat(sr, originalSize)
	shiftChunks := hasMdat && delta != 0 && moovAtom.Offset < mdatOffset

	moovBuf := make([]byte, moovAtom.Size)
	if err := sr.ReadAt(moovBuf, moovAtom.Offset, "moov atom"); err != nil {
		return err
	}

	if shiftChunks {
		if err := shiftChunkOffsets(sr, moovAtom, originalSize, moovBuf, delta); err != nil {
			return err
		}
	}

	ilstRel := ilstAtom.Offset - moovAtom.Offset
	newMoovBuf := make([]byte, 0, len(moovBuf)+int(delta))
	newMoovBuf = append(newMoovBuf, moovBuf[:ilstRel]...)
	newMoovBuf = append(newMoovBuf, newIlst...)
	newMoovBuf = append(newMoovBuf, moovBuf[ilstRel+int64(ilstAtom.Size):]...)

	patchSize32(newMoovBuf, metaAtom.Offset-moovAtom.Offset, metaAtom.Size, delta)
	patchSize32(newMoovBuf, udtaAtom.Offset-moovAtom.Offset, udtaAtom.Size, delta)
	patchSize32(newMoovBuf, 0, moovAtom.Size, delta)

	if _, err := io.CopyN(w, io.NewSectionReader(original, 0, moovAtom.Offset), moovAtom.Offset); err != nil {
		return err
	}
	if _, err := w.Write(newMoovBuf); err != nil {
		return err
	}
	_, err = io.Copy(w, io.NewSectionReader(original, moovAtom.End(), originalSize-moovAtom.End()))
	return err
}

// patchSize32 overwrites the 4-byte big-endian size field at relOffset
// within buf with origSize+delta. Assumes a non-extended (32-bit) size
// field, true for every meta/udta/moov atom this writer has ever had to
// deal with in practice; a box old enough to need the 64-bit extended
// form here would itself be larger than any real MP4 tag region.
func patchSize32(buf []byte, relOffset int64, origSize uint64, delta int64) {
	newSize := uint32(int64(origSize) + delta)
	binary.BigEndian.PutUint32(buf[relOffset:relOffset+4], newSize)
}

// findTopLevelMdat scans top-level boxes for the first "mdat", reporting
// whether one was found (absent in some fragmented MP4 layouts, which
// this writer then leaves chunk offsets alone for).
func findTopLevelMdat(sr *binutil.SafeReader, fileSize int64) (int64, bool) {
	var mdatOffset int64
	found := false
	_ = walkChildren(sr, 0, fileSize, fileSize, func(a *atom) (bool, error) {
		if a.Type == "mdat" {
			mdatOffset = a.Offset
			found = true
			return false, nil
		}
		return true, nil
	})
	return mdatOffset, found
}

// shiftChunkOffsets walks every trak's stbl for an stco or co64 atom and
// adds delta to each absolute chunk offset, patched directly into
// moovBuf (moovBuf[i] corresponds to file offset moovAtom.Offset+i).
func shiftChunkOffsets(sr *binutil.SafeReader, moovAtom *atom, fileSize int64, moovBuf []byte, delta int64) error {
	return walkChildren(sr, moovAtom.DataOffset(), moovAtom.DataOffset()+int64(moovAtom.DataSize()), fileSize, func(trak *atom) (bool, error) {
		if trak.Type != "trak" {
			return true, nil
		}

		mdiaAtom, err := findAtom(sr, trak.DataOffset(), trak.DataOffset()+int64(trak.DataSize()), fileSize, "mdia")
		if err != nil {
			return true, nil
		}
		minfAtom, err := findAtom(sr, mdiaAtom.DataOffset(), mdiaAtom.DataOffset()+int64(mdiaAtom.DataSize()), fileSize, "minf")
		if err != nil {
			return true, nil
		}
		stblAtom, err := findAtom(sr, minfAtom.DataOffset(), minfAtom.DataOffset()+int64(minfAtom.DataSize()), fileSize, "stbl")
		if err != nil {
			return true, nil
		}

		if stcoAtom, err := findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), fileSize, "stco"); err == nil {
			patchStco(moovBuf, moovAtom.Offset, stcoAtom, delta, 4)
		} else if co64Atom, err := findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), fileSize, "co64"); err == nil {
			patchStco(moovBuf, moovAtom.Offset, co64Atom, delta, 8)
		}

		return true, nil
	})
}

// patchStco overwrites every chunk-offset table entry (4 bytes for
// stco, 8 for co64) in place by adding delta to it.
func patchStco(moovBuf []byte, moovBase int64, tableAtom *atom, delta int64, entryWidth int) {
	rel := tableAtom.DataOffset() - moovBase + 4 // skip version/flags
	if rel < 0 || rel+4 > int64(len(moovBuf)) {
		return
	}
	count := binary.BigEndian.Uint32(moovBuf[rel : rel+4])
	rel += 4

	for i := uint32(0); i < count; i++ {
		if rel+int64(entryWidth) > int64(len(moovBuf)) {
			break
		}
		if entryWidth == 8 {
			v := binary.BigEndian.Uint64(moovBuf[rel : rel+8])
			binary.BigEndian.PutUint64(moovBuf[rel:rel+8], uint64(int64(v)+delta))
		} else {
			v := binary.BigEndian.Uint32(moovBuf[rel : rel+4])
			binary.BigEndian.PutUint32(moovBuf[rel:rel+4], uint32(int64(v)+delta))
		}
		rel += int64(entryWidth)
	}
}

// reverseAtomKeyMap gives the canonical atom name to emit for each
// ItemKey this package maps. Built explicitly rather than by inverting
// atomKeyMap, since a few ItemKeys (Genre, Comment) have more than one
// native atom mapping onto them on read and only one should come back
// out on write.
var reverseAtomKeyMap = map[types.ItemKey]string{
	types.TrackTitle:   "\xA9nam",
	types.TrackArtist:  "\xA9ART",
	types.AlbumArtist:  "aART",
	types.AlbumTitle:   "\xA9alb",
	types.Genre:        "\xA9gen",
	types.Comment:      "\xA9cmt",
	types.Composer:     "\xA9wrt",
	types.Year:         "\xA9day",
	types.Lyrics:       "\xA9lyr",
	types.Grouping:     "\xA9grp",
	types.Copyright:    "cprt",
	types.Encoder:      "\xA9too",
}

// buildIlstAtom serializes a Mp4Ilst tag's items and pictures into a
// complete ilst box (header included), mirroring the nested
// tag-atom/data-atom/version+flags+reserved layout extractIlstTags
// parses on read.
func buildIlstAtom(tag *types.Mp4Ilst) []byte {
	var body []byte

	trackNum, trackTotal := tag.Get(types.TrackNumber), tag.Get(types.TrackTotal)
	if trackNum != "" || trackTotal != "" {
		body = append(body, buildIndexPairAtom("trkn", trackNum, trackTotal)...)
	}
	discNum, discTotal := tag.Get(types.DiscNumber), tag.Get(types.DiscTotal)
	if discNum != "" || discTotal != "" {
		body = append(body, buildIndexPairAtom("disk", discNum, discTotal)...)
	}

	skip := map[types.ItemKey]bool{
		types.TrackNumber: true, types.TrackTotal: true,
		types.DiscNumber: true, types.DiscTotal: true,
	}

	for key, values := range tag.Items() {
		if skip[key] {
			continue
		}
		name, ok := reverseAtomKeyMap[key]
		if !ok {
			if !strings.HasPrefix(string(key), "UNKNOWN:") {
				continue
			}
			name = strings.TrimPrefix(string(key), "UNKNOWN:")
		}
		for _, v := range values {
			body = append(body, buildTextAtom(name, v)...)
		}
	}

	for _, pic := range tag.Pictures() {
		body = append(body, buildCovrAtom(pic)...)
	}

	return wrapAtom("ilst", body)
}

// buildTextAtom builds one `<name>` atom holding a single text value in
// a nested data atom tagged with well-known type 1 (UTF-8).
func buildTextAtom(name, value string) []byte {
	dataBody := make([]byte, 8+len(value))
	binary.BigEndian.PutUint32(dataBody[0:4], 1) // version 0, flags = type 1 (UTF-8)
	copy(dataBody[8:], value)
	data := wrapAtom("data", dataBody)
	return wrapAtom(name, data)
}

// buildIndexPairAtom builds a trkn/disk atom from its two decimal string
// fields, laid out as 2 bytes reserved, 2 bytes index, 2 bytes total,
// 2 bytes reserved inside its data atom.
func buildIndexPairAtom(name, numStr, totalStr string) []byte {
	num, _ := strconv.Atoi(numStr)
	total, _ := strconv.Atoi(totalStr)

	dataBody := make([]byte, 16)
	binary.BigEndian.PutUint32(dataBody[0:4], 0) // version 0, flags 0 (reserved/binary type)
	binary.BigEndian.PutUint16(dataBody[10:12], uint16(num))
	binary.BigEndian.PutUint16(dataBody[12:14], uint16(total))
	data := wrapAtom("data", dataBody)
	return wrapAtom(name, data)
}

// buildCovrAtom builds a `covr` atom with one nested data atom carrying
// the picture bytes and its MIME-derived flags byte.
func buildCovrAtom(pic types.Picture) []byte {
	var flags byte
	switch pic.MIMEType {
	case "image/png":
		flags = 0x0E
	case "image/bmp":
		flags = 0x1B
	default:
		flags = 0x0D
	}

	dataBody := make([]byte, 8+len(pic.Data))
	binary.BigEndian.PutUint32(dataBody[0:4], uint32(flags))
	copy(dataBody[8:], pic.Data)
	data := wrapAtom("data", dataBody)
	return wrapAtom("covr", data)
}

// wrapAtom prefixes body with an 8-byte, non-extended box header.
func wrapAtom(atomType string, body []byte) []byte {
	buf := make([]byte, 8+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(8+len(body)))
	copy(buf[4:8], atomType)
	copy(buf[8:], body)
	return buf
}

func init() {
	registry.RegisterWriter(types.MP4, &writer{})
}
