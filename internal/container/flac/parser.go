// Package flac implements the FLAC metadata-block-chain reader and
// writer (spec §4.2 "FLAC"), grounded on the teacher's internal/flac
// package: the block-walking loop, STREAMINFO bit-packing, and PICTURE
// parsing are carried over near verbatim, generalized from the teacher's
// flattened types.File/types.Tags onto a types.TaggedFile carrying a
// *types.VorbisComments.
package flac

import (
	"fmt"
	"io"
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/bitutil"
	"github.com/BSteffaniak/lofty-go/internal/registry"
	"github.com/BSteffaniak/lofty-go/internal/types"
	"github.com/BSteffaniak/lofty-go/internal/vorbis"
)

// Metadata block types (spec §4.2).
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

// Magic is the 4-byte FLAC stream marker.
const Magic = "fLaC"

type parser struct{}

func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.TaggedFile, error) {
	sr := binutil.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return nil, types.NewError(types.ErrIO, path, "reading FLAC magic: %v", err)
	}
	if string(magic) != Magic {
		return nil, types.NewError(types.ErrFakeData, path, "invalid FLAC magic bytes")
	}

	file := &types.TaggedFile{FileType: types.FLAC}
	comments := types.NewVorbisComments()
	hasComments := false

	offset := int64(4)
	for offset < size {
		header, err := binutil.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			file.Warnings = append(file.Warnings, types.Warning{
				Stage: "metadata", Message: fmt.Sprintf("failed to read metadata block header at offset %d: %v", offset, err), Offset: offset,
			})
			break
		}

		isLast := (header >> 31) == 1
		blockType := uint8((header >> 24) & 0x7F)
		blockLength := int64(header & 0x00FFFFFF)
		offset += 4

		switch blockType {
		case blockTypeStreamInfo:
			if err := parseStreamInfo(sr, offset, blockLength, file); err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: fmt.Sprintf("failed to parse STREAMINFO: %v", err), Offset: offset})
			}

		case blockTypeVorbisComment:
			if err := parseVorbisComment(sr, offset, blockLength, comments, &file.Properties, opts); err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: fmt.Sprintf("failed to parse Vorbis comments: %v", err), Offset: offset})
			} else {
				hasComments = true
			}

		case blockTypePicture:
			if opts.ReadPictures {
				pic, err := parsePicture(sr, offset, opts)
				if err != nil {
					file.Warnings = append(file.Warnings, types.Warning{Stage: "pictures", Message: err.Error(), Offset: offset})
				} else {
					file.Pictures = append(file.Pictures, pic)
				}
			}

		case blockTypePadding, blockTypeApplication, blockTypeSeekTable:
			// Nothing to extract.

		case blockTypeCueSheet:
			chapters, err := parseCueSheet(sr, offset, uint32(blockLength), file.Properties.SampleRate)
			if err != nil {
				file.Warnings = append(file.Warnings, types.Warning{Stage: "chapters", Message: fmt.Sprintf("failed to parse CUESHEET: %v", err), Offset: offset})
			} else {
				file.Chapters = chapters
			}

		default:
			// Unknown block type, skip.
		}

		offset += blockLength
		if isLast {
			break
		}
	}

	if hasComments {
		file.Tags = append(file.Tags, comments)
	}

	file.Properties.Codec = "FLAC"
	file.Properties.CodecDescription = "FLAC"
	file.Properties.Lossless = true

	return file, nil
}

func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string, opts types.ParseOptions) ([]types.Picture, error) {
	sr := binutil.NewSafeReader(r, size, path)

	var pics []types.Picture
	offset := int64(4)
	for offset < size {
		header, err := binutil.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			break
		}

		isLast := (header >> 31) == 1
		blockType := uint8((header >> 24) & 0x7F)
		blockLength := int64(header & 0x00FFFFFF)
		offset += 4

		if blockType == blockTypePicture {
			pic, err := parsePicture(sr, offset, opts)
			if err == nil {
				pics = append(pics, pic)
			}
		}

		offset += blockLength
		if isLast {
			break
		}
	}

	return pics, nil
}

// parseStreamInfo extracts sample rate, channel count, bit depth, and
// duration from the mandatory 34-byte STREAMINFO block.
func parseStreamInfo(sr *binutil.SafeReader, offset, blockLength int64, file *types.TaggedFile) error {
	if blockLength != 34 {
		return fmt.Errorf("invalid STREAMINFO size: %d (expected 34)", blockLength)
	}

	data := make([]byte, 34)
	if err := sr.ReadAt(data, offset, "STREAMINFO block"); err != nil {
		return err
	}

	// Bytes 10-17 pack sample rate (20 bits), channels-1 (3 bits),
	// bits-per-sample-1 (5 bits), and total samples (36 bits).
	packed := uint64(data[10])<<56 | uint64(data[11])<<48 | uint64(data[12])<<40 | uint64(data[13])<<32 |
		uint64(data[14])<<24 | uint64(data[15])<<16 | uint64(data[16])<<8 | uint64(data[17])

	sampleRate := (packed >> 44) & 0xFFFFF
	channels := ((packed >> 41) & 0x7) + 1
	bitsPerSample := ((packed >> 36) & 0x1F) + 1
	totalSamples := packed & 0xFFFFFFFFF

	if sampleRate > 0 {
		durationSeconds := float64(totalSamples) / float64(sampleRate)
		file.Properties.Duration = time.Duration(durationSeconds * float64(time.Second))
	}

	file.Properties.SampleRate = int(sampleRate)
	file.Properties.Channels = int(channels)
	file.Properties.BitDepth = int(bitsPerSample)

	return nil
}

// parseVorbisComment parses the VORBIS_COMMENT block into comments,
// threading ReplayGain onto props as a side effect (spec §4.2).
func parseVorbisComment(sr *binutil.SafeReader, offset, blockLength int64, comments *types.VorbisComments, props *types.FileProperties, opts types.ParseOptions) error {
	current := offset

	vendorLength, err := binutil.ReadLE[uint32](sr, current, "vendor string length")
	if err != nil {
		return err
	}
	current += 4

	if err := bitutil.Guard(int64(vendorLength), opts.AllocationLimit, sr.Path(), "FLAC vendor string"); err != nil {
		return err
	}
	vendorBytes := make([]byte, vendorLength)
	if err := sr.ReadAt(vendorBytes, current, "vendor string"); err != nil {
		return err
	}
	comments.Vendor = string(vendorBytes)
	current += int64(vendorLength)

	numComments, err := binutil.ReadLE[uint32](sr, current, "number of comments")
	if err != nil {
		return err
	}
	current += 4

	for i := uint32(0); i < numComments; i++ {
		commentLength, err := binutil.ReadLE[uint32](sr, current, "comment length")
		if err != nil {
			return fmt.Errorf("read comment %d length: %w", i, err)
		}
		current += 4

		if err := bitutil.Guard(int64(commentLength), opts.AllocationLimit, sr.Path(), "FLAC Vorbis comment"); err != nil {
			return err
		}

		commentData := make([]byte, commentLength)
		if err := sr.ReadAt(commentData, current, fmt.Sprintf("comment %d", i)); err != nil {
			return fmt.Errorf("read comment %d: %w", i, err)
		}
		current += int64(commentLength)

		if err := vorbis.ParseComment(string(commentData), comments, props); err != nil {
			opts.LogDebug("invalid Vorbis comment", "error", err)
		}
	}

	return nil
}

// parsePicture parses a PICTURE metadata block.
func parsePicture(sr *binutil.SafeReader, offset int64, opts types.ParseOptions) (types.Picture, error) {
	current := offset

	pictureType, err := binutil.Read[uint32](sr, current, "picture type")
	if err != nil {
		return types.Picture{}, err
	}
	current += 4

	mimeLength, err := binutil.Read[uint32](sr, current, "MIME type length")
	if err != nil {
		return types.Picture{}, err
	}
	current += 4

	mimeData := make([]byte, mimeLength)
	if err := sr.ReadAt(mimeData, current, "MIME type"); err != nil {
		return types.Picture{}, err
	}
	mimeType := string(mimeData)
	current += int64(mimeLength)

	descLength, err := binutil.Read[uint32](sr, current, "description length")
	if err != nil {
		return types.Picture{}, err
	}
	current += 4

	descData := make([]byte, descLength)
	if descLength > 0 {
		if err := sr.ReadAt(descData, current, "description"); err != nil {
			return types.Picture{}, err
		}
	}
	description := string(descData)
	current += int64(descLength)

	width, err := binutil.Read[uint32](sr, current, "width")
	if err != nil {
		return types.Picture{}, err
	}
	current += 4

	height, err := binutil.Read[uint32](sr, current, "height")
	if err != nil {
		return types.Picture{}, err
	}
	current += 4

	current += 8 // color depth, indexed colors: unused

	dataLength, err := binutil.Read[uint32](sr, current, "picture data length")
	if err != nil {
		return types.Picture{}, err
	}
	current += 4

	if err := bitutil.Guard(int64(dataLength), opts.AllocationLimit, sr.Path(), "FLAC PICTURE data"); err != nil {
		return types.Picture{}, err
	}

	pictureData := make([]byte, dataLength)
	if err := sr.ReadAt(pictureData, current, "picture data"); err != nil {
		return types.Picture{}, err
	}

	return types.Picture{
		Data:        pictureData,
		MIMEType:    mimeType,
		PicType:     picType(pictureType),
		Description: description,
		Width:       int(width),
		Height:      int(height),
	}, nil
}

func picType(raw uint32) types.PictureType {
	if raw <= uint32(types.PicturePublisherLogo) {
		return types.PictureType(raw)
	}
	return types.PictureOther
}

func init() {
	registry.Register(types.FLAC, &parser{})
}
