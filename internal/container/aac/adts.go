package aac

// sampleRateTable is ADTS's 4-bit sampling_frequency_index table
// (ISO/IEC 13818-7 Table 1.18), index 13-14 reserved and 15 meaning
// "explicit frequency" (never produced by an encoder in practice, and
// not supported here).
var sampleRateTable = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350, 0, 0, 0,
}

// profileNames labels the 2-bit AAC profile field for CodecDescription.
var profileNames = [4]string{"AAC Main", "AAC LC", "AAC SSR", "AAC LTP"}

// header is a decoded 7-byte ADTS fixed+variable header (CRC-protection
// byte pair, when present, is skipped by the caller before the frame
// payload).
type header struct {
	profile      int
	sampleRate   int
	channels     int
	frameLength  int // total frame size, header included, in bytes
	noCRC        bool
}

// channelConfigTable maps the 3-bit channel_configuration field to a
// channel count (0 means "defined in program_config_element", not
// resolvable from the header alone).
var channelConfigTable = [8]int{0, 1, 2, 3, 4, 5, 6, 8}

// decodeADTSHeader decodes the 7-byte fixed ADTS header starting at the
// frame sync. buf must be at least 7 bytes.
func decodeADTSHeader(buf []byte) (header, bool) {
	if len(buf) < 7 {
		return header{}, false
	}
	if buf[0] != 0xFF || buf[1]&0xF0 != 0xF0 {
		return header{}, false
	}

	noCRC := buf[1]&0x01 != 0
	profile := int(buf[2]>>6) & 0x3
	freqIdx := (buf[2] >> 2) & 0xF
	channelConfig := ((buf[2] & 0x1) << 2) | (buf[3] >> 6)
	frameLength := (int(buf[3]&0x3) << 11) | (int(buf[4]) << 3) | (int(buf[5]) >> 5)

	sampleRate := sampleRateTable[freqIdx]
	if sampleRate == 0 || frameLength < 7 {
		return header{}, false
	}

	return header{
		profile:     profile,
		sampleRate:  sampleRate,
		channels:    channelConfigTable[channelConfig],
		frameLength: frameLength,
		noCRC:       noCRC,
	}, true
}
