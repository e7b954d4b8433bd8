package mp4

import (
	"strconv"
	"strings"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/bitutil"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// atomKeyMap maps the iTunes "©nam"-style metadata atom names this
// reader recognizes onto the format-agnostic ItemKey they correspond to.
// Unmapped atoms (trkn/disk are handled separately as binary tags, covr
// as pictures) fall back to types.Unknown(atomType).
//
// The © prefix is byte 0xA9 in Go's UTF-8-indifferent string indexing,
// matching the teacher's "©nam is \xA9nam" note.
var atomKeyMap = map[string]types.ItemKey{
	"\xA9nam": types.TrackTitle,
	"\xA9ART": types.TrackArtist,
	"aART":    types.AlbumArtist,
	"\xA9alb": types.AlbumTitle,
	"\xA9gen": types.Genre,
	"\xA9cmt": types.Comment,
	"\xA9wrt": types.Composer,
	"\xA9day": types.Year,
	"\xA9lyr": types.Lyrics,
	"\xA9grp": types.Grouping,
	"cprt":    types.Copyright,
	"\xA9too": types.Encoder,
	"catg":    types.Genre,
	"desc":    types.Comment,
}

// extractIlstTags walks the direct children of the ilst atom, mapping
// each metadata atom onto tag.ItemKey entries (or a Picture for covr),
// generalizing the teacher's extractIlstMetadata (which wrote straight
// into a flattened types.Tags struct) onto the shared Tag interface.
func extractIlstTags(sr *binutil.SafeReader, ilstAtom *atom, fileSize int64, tag *types.Mp4Ilst, file *types.TaggedFile, opts types.ParseOptions) error {
	offset := ilstAtom.DataOffset()
	end := offset + int64(ilstAtom.DataSize())

	customTags := make(map[string]string)

	for offset < end {
		tagAtom, err := readAtomHeader(sr, offset, fileSize)
		if err != nil {
			return err
		}

		switch tagAtom.Type {
		case "----":
			extractFreeformAtom(sr, tagAtom, fileSize, tag, customTags)
		case "trkn":
			num, total, err := parseIndexPair(sr, tagAtom, fileSize)
			if err == nil {
				if num > 0 {
					tag.Set(types.TrackNumber, strconv.Itoa(num))
				}
				if total > 0 {
					tag.Set(types.TrackTotal, strconv.Itoa(total))
				}
			}
		case "disk":
			num, total, err := parseIndexPair(sr, tagAtom, fileSize)
			if err == nil {
				if num > 0 {
					tag.Set(types.DiscNumber, strconv.Itoa(num))
				}
				if total > 0 {
					tag.Set(types.DiscTotal, strconv.Itoa(total))
				}
			}
		case "covr":
			if opts.ReadPictures {
				pics, err := parseCovrPictures(sr, tagAtom, fileSize, opts)
				if err != nil {
					file.Warnings = append(file.Warnings, types.Warning{Stage: "pictures", Message: err.Error(), Offset: offset})
				} else {
					tag.SetPictures(append(tag.Pictures(), pics...))
				}
			}
		default:
			value, err := parseTextTag(sr, tagAtom, fileSize, opts)
			if err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: err.Error(), Offset: offset})
			} else if value != "" {
				key, ok := atomKeyMap[tagAtom.Type]
				if !ok {
					key = types.Unknown(tagAtom.Type)
				}
				tag.Set(key, value)
			}
		}

		offset += int64(tagAtom.Size)
	}

	if tag.Get(types.Narrator) == "" {
		if composer := tag.Get(types.Composer); composer != "" {
			tag.Set(types.Narrator, composer)
		}
	}
	if tag.Get(types.Series) != "" && tag.Get(types.SeriesPart) == "" {
		if part := resolveSeriesPart(tag, sr.Path(), customTags); part != "" {
			tag.Set(types.SeriesPart, part)
		}
	}

	return nil
}

// parseTextTag reads the value out of a tag atom's nested data atom:
// tag atom → data atom → 8-byte version/flags/reserved prefix → value.
func parseTextTag(sr *binutil.SafeReader, tagAtom *atom, fileSize int64, opts types.ParseOptions) (string, error) {
	if tagAtom.DataSize() == 0 {
		return "", nil
	}

	dataAtom, err := findAtom(sr, tagAtom.DataOffset(), tagAtom.DataOffset()+int64(tagAtom.DataSize()), fileSize, "data")
	if err != nil {
		return "", nil
	}

	valueOffset := dataAtom.DataOffset() + 8
	valueSize := int64(dataAtom.DataSize()) - 8
	if valueSize <= 0 {
		return "", nil
	}
	if err := bitutil.Guard(valueSize, opts.AllocationLimit, sr.Path(), "MP4 metadata value"); err != nil {
		return "", err
	}

	buf := make([]byte, valueSize)
	if err := sr.ReadAt(buf, valueOffset, "metadata value"); err != nil {
		return "", err
	}

	value := strings.TrimRight(string(buf), "\x00")
	return strings.TrimSpace(value), nil
}

// parseIndexPair parses the binary `trkn`/`disk` data atom layout:
// 2 bytes reserved, 2 bytes index, 2 bytes total, 2 bytes reserved.
func parseIndexPair(sr *binutil.SafeReader, tagAtom *atom, fileSize int64) (num, total int, err error) {
	dataAtom, err := findAtom(sr, tagAtom.DataOffset(), tagAtom.DataOffset()+int64(tagAtom.DataSize()), fileSize, "data")
	if err != nil {
		return 0, 0, err
	}

	offset := dataAtom.DataOffset() + 8 + 2 // version/flags/reserved, then reserved pair

	n, err := binutil.Read[uint16](sr, offset, "index")
	if err != nil {
		return 0, 0, err
	}
	t, err := binutil.Read[uint16](sr, offset+2, "index total")
	if err != nil {
		return 0, 0, err
	}

	return int(n), int(t), nil
}

// parseCovrPictures reads every `data` child of a covr atom as one
// embedded picture (iTunes allows more than one cover per file).
func parseCovrPictures(sr *binutil.SafeReader, covrAtom *atom, fileSize int64, opts types.ParseOptions) ([]types.Picture, error) {
	var pics []types.Picture

	offset := covrAtom.DataOffset()
	end := offset + int64(covrAtom.DataSize())

	for offset < end {
		dataAtom, err := readAtomHeader(sr, offset, fileSize)
		if err != nil {
			break
		}

		if dataAtom.Type == "data" {
			pic, err := parseCovrData(sr, dataAtom, opts)
			if err == nil {
				pics = append(pics, pic)
			}
		}

		if dataAtom.Size == 0 {
			break
		}
		offset += int64(dataAtom.Size)
	}

	return pics, nil
}

// mp4PictureFlags maps the flags byte iTunes stores in a covr data atom
// (byte 3 of the 4-byte version+flags field) onto a MIME type.
func mp4PictureFlags(flags uint8) string {
	switch flags {
	case 0x0E:
		return "image/png"
	case 0x1B:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

func parseCovrData(sr *binutil.SafeReader, dataAtom *atom, opts types.ParseOptions) (types.Picture, error) {
	offset := dataAtom.DataOffset()

	versionFlags, err := binutil.Read[uint32](sr, offset, "covr data version+flags")
	if err != nil {
		return types.Picture{}, err
	}
	mimeType := mp4PictureFlags(uint8(versionFlags & 0xFF))

	imageOffset := offset + 8
	imageSize := int64(dataAtom.DataSize()) - 8
	if imageSize <= 0 {
		return types.Picture{}, types.NewError(types.ErrBadPictureFormat, sr.Path(), "covr data atom has no image payload")
	}
	if err := bitutil.Guard(imageSize, opts.AllocationLimit, sr.Path(), "MP4 covr picture"); err != nil {
		return types.Picture{}, err
	}

	imageData := make([]byte, imageSize)
	if err := sr.ReadAt(imageData, imageOffset, "cover image data"); err != nil {
		return types.Picture{}, err
	}

	return types.Picture{
		Data:     imageData,
		MIMEType: mimeType,
		PicType:  types.PictureFrontCover,
	}, nil
}
