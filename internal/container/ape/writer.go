package ape

import (
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/apev2"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// writer splices a freshly-built APEv2 tag region in place of whatever
// tag region (if any) internal/apev2.Find located, same shape as the mp4
// and wav writers: locate the old region, compute the new bytes, stream
// everything before unchanged, then the new region, then whatever
// trailed it (an ID3v1 tag, if one was present).
type writer struct{}

func (writer) Write(w io.Writer, file *types.TaggedFile, original io.ReaderAt, originalSize int64) error {
	sr := binutil.NewSafeReader(original, originalSize, "")

	tag, _ := file.TagByType(types.TagApe).(*types.ApeTag)
	if tag == nil {
		tag = types.NewApeTag()
	}
	newTag := apev2.Build(tag)

	result, ok, err := apev2.Find(sr, originalSize, 0)
	if err != nil {
		return err
	}

	var tagStart, tagEnd int64
	if ok {
		tagStart, tagEnd = result.TagOffset, result.TagEnd
	} else {
		tagStart, tagEnd = originalSize, originalSize
	}

	if _, err := io.Copy(w, io.NewSectionReader(original, 0, tagStart)); err != nil {
		return err
	}
	if _, err := w.Write(newTag); err != nil {
		return err
	}
	if _, err := io.Copy(w, io.NewSectionReader(original, tagEnd, originalSize-tagEnd)); err != nil {
		return err
	}

	return nil
}
