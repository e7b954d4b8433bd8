package mp4

import (
	"io"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

type parser struct{}

// Parse walks the box tree looking for the two paths the spec names:
// moov/udta/meta/ilst for tags and moov/trak/mdia/mdhd + …/stsd/<codec>
// for properties. Both are optional in the sense that a missing meta or
// stsd just leaves that part of the TaggedFile empty rather than failing
// the whole parse, matching BestAttempt's recoverable-fault model; a
// missing moov itself is framing-level and surfaces as an error.
func (parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	moovAtom, err := findAtom(sr, 0, size, size, "moov")
	if err != nil {
		return nil, types.NewError(types.ErrFakeData, path, "no moov atom found: %v", err)
	}

	file := &types.TaggedFile{FileType: types.MP4}

	if opts.ReadProperties {
		if err := parseTechnicalInfo(sr, moovAtom, size, file); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: err.Error()})
		}
	}

	ilstAtom, meta, err := findIlst(sr, moovAtom, size)
	if err == nil {
		tag := types.NewMp4Ilst()
		if err := extractIlstTags(sr, ilstAtom, size, tag, file, opts); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: err.Error()})
		}
		if tag.Len() > 0 || len(tag.Pictures()) > 0 {
			file.Tags = append(file.Tags, tag)
		}
		_ = meta
	}

	if udtaAtom, err := findAtom(sr, moovAtom.DataOffset(), moovAtom.DataOffset()+int64(moovAtom.DataSize()), size, "udta"); err == nil {
		if chplAtom, err := findAtom(sr, udtaAtom.DataOffset(), udtaAtom.DataOffset()+int64(udtaAtom.DataSize()), size, "chpl"); err == nil {
			_ = chplAtom
			chapters, cerr := parseChplChapters(sr, moovAtom, size, file.Properties.Duration)
			if cerr != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "chapters", Message: cerr.Error()})
			} else {
				file.Chapters = chapters
			}
		}
	}

	return file, nil
}

// ExtractArtwork satisfies registry.ArtworkExtractor for lazy picture
// loading: re-walks just far enough to find covr without touching
// properties or the rest of the tag set.
func (parser) ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error) {
	sr := binutil.NewSafeReader(r, size, path)

	moovAtom, err := findAtom(sr, 0, size, size, "moov")
	if err != nil {
		return nil, nil
	}

	ilstAtom, _, err := findIlst(sr, moovAtom, size)
	if err != nil {
		return nil, nil
	}

	covrAtom, err := findAtom(sr, ilstAtom.DataOffset(), ilstAtom.DataOffset()+int64(ilstAtom.DataSize()), size, "covr")
	if err != nil {
		return nil, nil
	}

	return parseCovrPictures(sr, covrAtom, size, opts)
}

// findIlst resolves moov/udta/meta/ilst, accounting for the 4-byte
// version+flags prefix a full box `meta` atom carries before its
// children (unlike most other container boxes).
func findIlst(sr *binutil.SafeReader, moovAtom *atom, fileSize int64) (ilst *atom, meta *atom, err error) {
	udtaAtom, err := findAtom(sr, moovAtom.DataOffset(), moovAtom.DataOffset()+int64(moovAtom.DataSize()), fileSize, "udta")
	if err != nil {
		return nil, nil, err
	}

	metaAtom, err := findAtom(sr, udtaAtom.DataOffset(), udtaAtom.DataOffset()+int64(udtaAtom.DataSize()), fileSize, "meta")
	if err != nil {
		return nil, nil, err
	}

	metaDataOffset := metaAtom.DataOffset() + 4
	metaDataEnd := metaAtom.DataOffset() + int64(metaAtom.DataSize())

	ilstAtom, err := findAtom(sr, metaDataOffset, metaDataEnd, fileSize, "ilst")
	if err != nil {
		return nil, nil, err
	}

	return ilstAtom, metaAtom, nil
}

func init() {
	registry.Register(types.MP4, &parser{})
}
