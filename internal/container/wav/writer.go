package wav

import (
	"encoding/binary"
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// writer rewrites the dedicated `ID3 ` chunk that carries a WAV file's
// ID3v2 block (spec §4.2: "the block lives inside a dedicated ID3
// chunk; the writer clears footer, then rewrites that chunk (or appends
// it if absent), updating the outer RIFF size little-endian"), mirroring
// the splice-and-patch shape of the mp4 writer but over RIFF's flat
// chunk list instead of a box tree.
type writer struct{}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	tag, _ := file.TagByType(types.TagID3v2).(*types.Id3v2Tag)
	if tag == nil {
		tag = types.NewId3v2Tag()
	}

	b := id3v2.BuildFromTag(tag)
	// A WAV ID3 chunk is never prepended-and-synced the way an MPEG
	// frame stream needs; the footer exists solely for streaming
	// recovery, so it's cleared here same as any other container whose
	// tag lives in a length-prefixed chunk rather than a raw byte
	// stream.
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

	riffHeader := make([]byte, 12)
	if err := sr.ReadAt(riffHeader, 0, "RIFF header"); err != nil {
		return err
	}
	oldRiffSize := binary.LittleEndian.Uint32(riffHeader[4:8])
	binary.LittleEndian.PutUint32(riffHeader[4:8], uint32(int64(oldRiffSize)+delta))

	if _, err := w.Write(riffHeader); err != nil {
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

// wrapChunk prefixes data with a 4-char id and LE32 size, padding to an
// even total length the way every RIFF chunk on disk is padded.
func wrapChunk(id string, data []byte) []byte {
	size := len(data)
	padded := size%2 == 1
	buf := make([]byte, 8+size)
	copy(buf[0:4], id)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(size))
	copy(buf[8:], data)
	if padded {
		buf = append(buf, 0)
	}
	return buf
}

// findID3Chunk walks the top-level chunk list for an existing `ID3 ` (or
// lowercase `id3 `) chunk, returning its offset and total on-disk size
// (header + payload + pad byte).
func findID3Chunk(sr *binutil.SafeReader, size int64) (offset int64, totalSize int64, found bool) {
	pos := int64(12)
	for pos+8 <= size {
		id := make([]byte, 4)
		if err := sr.ReadAt(id, pos, "chunk id"); err != nil {
			return 0, 0, false
		}
		chunkSize, err := binutil.ReadLE[uint32](sr, pos+4, "chunk size")
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
