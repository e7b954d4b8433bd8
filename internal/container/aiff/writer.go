package aiff

import (
	"encoding/binary"
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// writer rewrites the dedicated `ID3 `/`id3 ` chunk an AIFF file's ID3v2
// block lives in, the big-endian mirror of internal/container/wav's
// writer: splice a new chunk in (or append one if absent), then patch
// the outer FORM size.
type writer struct{}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	tag, _ := file.TagByType(types.TagID3v2).(*types.Id3v2Tag)
	if tag == nil {
		tag = types.NewId3v2Tag()
	}

	b := id3v2.BuildFromTag(tag)
	tagBytes, err := b.Bytes(id3v2.WriteOptions{Footer: false})
	if err != nil {
		return err
	}

	newChunk := wrapChunk("ID3 ", tagBytes)

	sr := binutil.NewSafeReader(original, originalSize, "")
	chunkOffset, chunkTotalSize, found := findID3Chunk(sr, originalSize)

	var prefix, suffix io.Reader
	var delta int64

	if found {
		prefix = io.NewSectionReader(original, 0, chunkOffset)
		suffix = io.NewSectionReader(original, chunkOffset+chunkTotalSize, originalSize-chunkOffset-chunkTotalSize)
		delta = int64(len(newChunk)) - chunkTotalSize
	} else {
		prefix = io.NewSectionReader(original, 0, originalSize)
		suffix = nil
		delta = int64(len(newChunk))
	}

	formHeader := make([]byte, 12)
	if err := sr.ReadAt(formHeader, 0, "FORM header"); err != nil {
		return err
	}
	oldFormSize := binary.BigEndian.Uint32(formHeader[4:8])
	binary.BigEndian.PutUint32(formHeader[4:8], uint32(int64(oldFormSize)+delta))

	if _, err := w.Write(formHeader); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, prefix, 12); err != nil && err != io.EOF {
		return err
	}
	if _, err := io.Copy(w, prefix); err != nil {
		return err
	}
	if _, err := w.Write(newChunk); err != nil {
		return err
	}
	if suffix != nil {
		if _, err := io.Copy(w, suffix); err != nil {
			return err
		}
	}

	return nil
}

// wrapChunk prefixes data with a 4-char id and a BE32 size, padding to
// an even total length (a pad byte is only needed when size is odd).
func wrapChunk(id string, data []byte) []byte {
	size := len(data)
	padded := size%2 == 1
	buf := make([]byte, 8+size)
	copy(buf[0:4], id)
	binary.BigEndian.PutUint32(buf[4:8], uint32(size))
	copy(buf[8:], data)
	if padded {
		buf = append(buf, 0)
	}
	return buf
}

// findID3Chunk walks the top-level chunk list for an existing ID3 chunk,
// returning its offset and total on-disk size (header + payload + pad).
func findID3Chunk(sr *binutil.SafeReader, size int64) (offset int64, totalSize int64, found bool) {
	pos := int64(12)
	for pos+8 <= size {
		id := make([]byte, 4)
		if err := sr.ReadAt(id, pos, "chunk id"); err != nil {
			return 0, 0, false
		}
		chunkSize, err := binutil.ReadBE[uint32](sr, pos+4, "chunk size")
		if err != nil {
			return 0, 0, false
		}

		advance := int64(chunkSize)
		if advance%2 == 1 {
			advance++
		}
		total := 8 + advance

		switch string(id) {
		case "ID3 ", "id3 ":
			return pos, total, true
		}

		pos += total
	}
	return 0, 0, false
}
