package mpeg

// mpegVersion identifies the MPEG audio version bits (spec §4.2 "MPEG").
type mpegVersion int

const (
	version25 mpegVersion = iota // 00
	versionReserved
	version2 // 10
	version1 // 11
)

type layer int

const (
	layerReserved layer = iota
	layerIII
	layerII
	layerI
)

// bitrateTables is indexed [versionGroup][layerI-layer][bitrateIndex]
// (rows in Layer I, II, III order), where
// versionGroup 0 is MPEG1 and versionGroup 1 is MPEG2/2.5 (the two
// families share bitrate tables for Layer II and III).
var bitrateTables = [2][3][16]int{
	// MPEG1
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},  // Layer I
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},     // Layer II
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},      // Layer III
	},
	// MPEG2 / MPEG2.5
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}, // Layer I
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // Layer II
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // Layer III
	},
}

var sampleRateTables = [3][3]int{
	{44100, 48000, 32000}, // MPEG1
	{22050, 24000, 16000}, // MPEG2
	{11025, 12000, 8000},  // MPEG2.5
}

// header is a decoded 32-bit MPEG audio frame header.
type header struct {
	version     mpegVersion
	lyr         layer
	bitrateKbps int
	sampleRate  int
	padding     bool
	channels    int
}

// decodeHeader decodes the 32-bit big-endian MPEG frame header word. ok
// is false if the sync, version, or layer bits are invalid/reserved.
func decodeHeader(word uint32) (h header, ok bool) {
	if word&0xFFE00000 != 0xFFE00000 {
		return header{}, false
	}

	ver := mpegVersion((word >> 19) & 0x3)
	if ver == versionReserved {
		return header{}, false
	}
	lyr := layer((word >> 17) & 0x3)
	if lyr == layerReserved {
		return header{}, false
	}

	bitrateIdx := (word >> 12) & 0xF
	sampleRateIdx := (word >> 10) & 0x3
	if sampleRateIdx == 3 {
		return header{}, false
	}
	padding := (word>>9)&0x1 != 0
	channelMode := (word >> 6) & 0x3

	versionGroup := 0
	sampleRateGroup := 0
	if ver != version1 {
		versionGroup = 1
		if ver == version25 {
			sampleRateGroup = 2
		} else {
			sampleRateGroup = 1
		}
	}

	bitrate := bitrateTables[versionGroup][layerI-lyr][bitrateIdx]
	sampleRate := sampleRateTables[sampleRateGroup][sampleRateIdx]
	if bitrate == 0 || sampleRate == 0 {
		return header{}, false
	}

	channels := 2
	if channelMode == 3 {
		channels = 1
	}

	return header{
		version:     ver,
		lyr:         lyr,
		bitrateKbps: bitrate,
		sampleRate:  sampleRate,
		padding:     padding,
		channels:    channels,
	}, true
}

// samplesPerFrame returns the PCM sample count a single frame decodes to.
func (h header) samplesPerFrame() int {
	switch h.lyr {
	case layerI:
		return 384
	case layerII:
		return 1152
	default: // layerIII
		if h.version == version1 {
			return 1152
		}
		return 576
	}
}

// frameSize returns the on-disk size of a frame carrying this header, in
// bytes, including the 4-byte header itself.
func (h header) frameSize() int {
	if h.lyr == layerI {
		return (12*h.bitrateKbps*1000/h.sampleRate + boolToInt(h.padding)) * 4
	}
	coefficient := 144
	if h.lyr == layerIII && h.version != version1 {
		coefficient = 72
	}
	return coefficient*h.bitrateKbps*1000/h.sampleRate + boolToInt(h.padding)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// xingOffset returns the byte offset of the optional Xing/Info/VBRI side
// info, relative to the start of the frame header, for MPEG1 vs MPEG2/2.5
// mono/stereo layouts.
func (h header) xingOffset() int64 {
	if h.version == version1 {
		if h.channels == 1 {
			return 4 + 17
		}
		return 4 + 32
	}
	if h.channels == 1 {
		return 4 + 9
	}
	return 4 + 17
}
