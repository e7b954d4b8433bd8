// Package id3v2 implements the ID3v2.2/2.3/2.4 tag engine (spec §4.3):
// header and extended-header parsing, frame enumeration with the full
// per-frame flag pipeline, mapping to the format-agnostic ItemKey model,
// and a writer that rebuilds a tag from scratch for either a prepended
// block (MPEG/AAC/APE) or an embedded chunk (WAV/AIFF).
//
// Read-side framing is grounded on the teacher's internal/mp3/id3v2.go;
// writer placement and the extended-header CRC decision follow
// original_source/src/id3/v2/write/mod.rs.
package id3v2

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/bitutil"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// Flags holds the ID3v2 tag header flag bits (spec §4.3: 0x80
// unsynchronisation, 0x40 extended header, 0x20 experimental, 0x10
// footer present, v2.4 only).
type Flags struct {
	Unsynchronisation bool
	ExtendedHeader    bool
	Experimental      bool
	Footer            bool
}

// Header is the parsed 10-byte ID3v2 tag header.
type Header struct {
	Version  byte // 2, 3, or 4
	Revision byte
	Flags    Flags
	Size     uint32 // tag size, excluding the 10-byte header (and footer)
}

// Magic is the 3-byte ID3v2 tag identifier.
const Magic = "ID3"

// HeaderLen is the fixed header size in bytes.
const HeaderLen = 10

// ReadHeader reads and validates the 10-byte ID3v2 header at offset 0.
func ReadHeader(sr *binutil.SafeReader) (Header, error) {
	buf := make([]byte, HeaderLen)
	if err := sr.ReadAt(buf, 0, "ID3v2 header"); err != nil {
		return Header{}, types.NewError(types.ErrIO, sr.Path(), "reading ID3v2 header: %v", err)
	}
	if string(buf[0:3]) != Magic {
		return Header{}, types.NewError(types.ErrUnknownFormat, sr.Path(), "missing ID3v2 magic")
	}

	version := buf[3]
	if version < 2 || version > 4 {
		return Header{}, types.NewError(types.ErrUnsupportedFormat, sr.Path(), "unsupported ID3v2.%d", version)
	}

	flagsByte := buf[5]
	size, err := bitutil.UnpackSynchsafe(binary.BigEndian.Uint32(buf[6:10]), sr.Path())
	if err != nil {
		return Header{}, err
	}

	return Header{
		Version:  version,
		Revision: buf[4],
		Size:     size,
		Flags: Flags{
			Unsynchronisation: flagsByte&0x80 != 0,
			ExtendedHeader:    flagsByte&0x40 != 0,
			Experimental:      flagsByte&0x20 != 0,
			Footer:            version == 4 && flagsByte&0x10 != 0,
		},
	}, nil
}

// TagLen returns the total on-disk size of the tag, header (and footer,
// if present) included.
func (h Header) TagLen() int64 {
	n := int64(HeaderLen) + int64(h.Size)
	if h.Flags.Footer {
		n += HeaderLen
	}
	return n
}

// ExtendedHeader describes the optional extended header (v2.3/2.4).
type ExtendedHeader struct {
	Size           uint32
	CRCPresent     bool
	CRC            uint32
	RestrictionsSet bool
}

// skipExtendedHeader reads past the extended header (if Flags.ExtendedHeader
// is set) and returns the offset where the frame list begins.
func skipExtendedHeader(sr *binutil.SafeReader, h Header) (int64, ExtendedHeader, error) {
	frameOffset := int64(HeaderLen)
	if !h.Flags.ExtendedHeader {
		return frameOffset, ExtendedHeader{}, nil
	}

	if h.Version == 4 {
		szBuf := make([]byte, 4)
		if err := sr.ReadAt(szBuf, frameOffset, "extended header size"); err != nil {
			return frameOffset, ExtendedHeader{}, nil
		}
		extSize, err := bitutil.UnpackSynchsafe(binary.BigEndian.Uint32(szBuf), sr.Path())
		if err != nil {
			return frameOffset, ExtendedHeader{}, err
		}

		var ext ExtendedHeader
		ext.Size = extSize

		// byte layout: size(4) numFlagBytes(1) flags(1) [crc(5)] [restrictions(1)]
		flagsBuf := make([]byte, 2)
		if err := sr.ReadAt(flagsBuf, frameOffset+4, "extended header flags"); err == nil {
			extFlags := flagsBuf[1]
			ext.CRCPresent = extFlags&0x20 != 0
			ext.RestrictionsSet = extFlags&0x10 != 0
		}

		return frameOffset + int64(extSize), ext, nil
	}

	// v2.3: size is a plain (non-synchsafe) 32-bit integer, and the 4
	// size bytes are not counted in the value itself.
	szBuf := make([]byte, 4)
	if err := sr.ReadAt(szBuf, frameOffset, "extended header size"); err != nil {
		return frameOffset, ExtendedHeader{}, nil
	}
	extSize := binary.BigEndian.Uint32(szBuf)
	return frameOffset + 4 + int64(extSize), ExtendedHeader{Size: extSize}, nil
}

func fmtVersion(h Header) string { return fmt.Sprintf("ID3v2.%d.%d", h.Version, h.Revision) }
