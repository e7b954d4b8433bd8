package flac

import (
	"encoding/binary"
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
	"github.com/BSteffaniak/lofty-go/internal/vorbis"
)

// writer rewrites a FLAC file's VORBIS_COMMENT metadata block, the
// sibling-tag write internal/container/ogg already does for the same
// comment format, but over FLAC's flat block-header chain instead of
// Ogg's paginated packet stream: every other block (STREAMINFO, PADDING,
// SEEKTABLE, PICTURE, CUESHEET, ...) is carried through byte-for-byte,
// with only the last-block-flag bit patched where the chain's length
// changed.
type writer struct{}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	sr := binutil.NewSafeReader(original, originalSize, "")

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return types.NewError(types.ErrIO, "", "reading FLAC magic: %v", err)
	}
	if string(magic) != Magic {
		return types.NewError(types.ErrFakeData, "", "invalid FLAC magic bytes")
	}

	comments, _ := file.TagByType(types.TagVorbisComments).(*types.VorbisComments)
	if comments == nil {
		comments = types.NewVorbisComments()
	}
	if comments.Vendor == "" {
		comments.Vendor = "lofty-go"
	}

	var kept [][]byte
	offset := int64(4)
	var audioStart int64

	for offset < originalSize {
		header, err := binutil.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return types.NewError(types.ErrIO, "", "reading metadata block header at %d: %v", offset, err)
		}

		isLast := (header >> 31) == 1
		blockType := uint8((header >> 24) & 0x7F)
		blockLength := int64(header & 0x00FFFFFF)

		if blockType != blockTypeVorbisComment {
			raw := make([]byte, 4+blockLength)
			if err := sr.ReadAt(raw, offset, "metadata block"); err != nil {
				return types.NewError(types.ErrIO, "", "reading metadata block at %d: %v", offset, err)
			}
			kept = append(kept, raw)
		}

		offset += 4 + blockLength
		if isLast {
			audioStart = offset
			break
		}
	}

	if len(kept) == 0 {
		return types.NewError(types.ErrFakeData, "", "no STREAMINFO block found")
	}

	newBlock := wrapBlock(blockTypeVorbisComment, buildVorbisCommentBody(comments))

	// STREAMINFO must stay first; the new comment block goes right after
	// it, matching where an encoder conventionally places it.
	blocks := make([][]byte, 0, len(kept)+1)
	blocks = append(blocks, kept[0], newBlock)
	blocks = append(blocks, kept[1:]...)

	for i, b := range blocks {
		b[0] &^= 0x80
		if i == len(blocks)-1 {
			b[0] |= 0x80
		}
	}

	if _, err := w.Write([]byte(Magic)); err != nil {
		return err
	}
	for _, b := range blocks {
		if _, err := w.Write(b); err != nil {
			return err
		}
	}

	_, err := io.Copy(w, io.NewSectionReader(original, audioStart, originalSize-audioStart))
	return err
}

// wrapBlock prepends a metadata block header (last-block bit left
// clear; the caller fixes it up once the final block is known) to body.
func wrapBlock(blockType uint8, body []byte) []byte {
	n := len(body)
	header := []byte{blockType & 0x7F, byte(n >> 16), byte(n >> 8), byte(n)}
	return append(header, body...)
}

// buildVorbisCommentBody serializes a VorbisComments tag into the
// vendor-string + count + length-prefixed "key=value" list layout,
// identical to internal/container/ogg's comment packet body minus the
// codec-specific magic prefix FLAC's block header already supplies.
func buildVorbisCommentBody(comments *types.VorbisComments) []byte {
	var buf []byte

	writeUint32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	writeUint32(uint32(len(comments.Vendor)))
	buf = append(buf, comments.Vendor...)

	values := vorbis.Emit(comments)
	writeUint32(uint32(len(values)))
	for _, v := range values {
		writeUint32(uint32(len(v)))
		buf = append(buf, v...)
	}

	return buf
}

func init() {
	registry.RegisterWriter(types.FLAC, &writer{})
}
