package ogg

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/BSteffaniak/lofty-go/internal/bitutil"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// decodeBlockPicture decodes a base64 METADATA_BLOCK_PICTURE Vorbis
// comment value into a types.Picture. The decoded payload uses the same
// big-endian layout as a FLAC PICTURE metadata block (spec §4.2 "Ogg
// Vorbis/Opus/Speex": "optional embedded pictures"), grounded on
// internal/container/flac's parsePicture but operating over an in-memory
// byte slice rather than a file-backed SafeReader.
func decodeBlockPicture(encoded string, allocationLimit int64) (types.Picture, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return types.Picture{}, fmt.Errorf("invalid METADATA_BLOCK_PICTURE base64: %w", err)
	}

	const minHeader = 32
	if len(raw) < minHeader {
		return types.Picture{}, fmt.Errorf("METADATA_BLOCK_PICTURE too short: %d bytes", len(raw))
	}

	off := 0
	read32 := func(label string) (uint32, error) {
		if off+4 > len(raw) {
			return 0, fmt.Errorf("truncated %s", label)
		}
		v := binary.BigEndian.Uint32(raw[off : off+4])
		off += 4
		return v, nil
	}

	pictureType, err := read32("picture type")
	if err != nil {
		return types.Picture{}, err
	}

	mimeLen, err := read32("MIME type length")
	if err != nil {
		return types.Picture{}, err
	}
	if off+int(mimeLen) > len(raw) {
		return types.Picture{}, fmt.Errorf("truncated MIME type")
	}
	mimeType := string(raw[off : off+int(mimeLen)])
	off += int(mimeLen)

	descLen, err := read32("description length")
	if err != nil {
		return types.Picture{}, err
	}
	if off+int(descLen) > len(raw) {
		return types.Picture{}, fmt.Errorf("truncated description")
	}
	description := string(raw[off : off+int(descLen)])
	off += int(descLen)

	width, err := read32("width")
	if err != nil {
		return types.Picture{}, err
	}
	height, err := read32("height")
	if err != nil {
		return types.Picture{}, err
	}

	off += 8 // color depth, indexed colors: unused

	dataLen, err := read32("picture data length")
	if err != nil {
		return types.Picture{}, err
	}
	if err := bitutil.Guard(int64(dataLen), allocationLimit, "", "Ogg METADATA_BLOCK_PICTURE data"); err != nil {
		return types.Picture{}, err
	}
	if off+int(dataLen) > len(raw) {
		return types.Picture{}, fmt.Errorf("truncated picture data")
	}
	data := make([]byte, dataLen)
	copy(data, raw[off:off+int(dataLen)])

	return types.Picture{
		Data:        data,
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
