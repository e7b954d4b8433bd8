package mpeg

import (
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/id3v2"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// writer rebuilds the ID3v2 tag and re-prepends it, matching the "MPEG
// tags are a prepended block" placement rule (spec §4.3).
type writer struct{}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	tag, _ := file.TagByType(types.TagID3v2).(*types.Id3v2Tag)

	b := id3v2.BuildFromTag(tag)
	tagBytes, err := b.Bytes(id3v2.WriteOptions{})
	if err != nil {
		return err
	}

	sr := binutil.NewSafeReader(original, originalSize, "")
	var oldTagLen int64
	if id3v2.HasTag(sr) {
		h, err := id3v2.ReadHeader(sr)
		if err == nil {
			oldTagLen = h.TagLen()
		}
	}

	return id3v2.PrependToFile(w, tagBytes, original, originalSize, oldTagLen)
}
