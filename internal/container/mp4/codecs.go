package mp4

import (
	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
)

// codecNames maps MP4 sample entry FourCCs to human-readable names,
// carried over from the teacher's codecs.go table.
var codecNames = map[string]string{
	"mp4a": "AAC",
	"mhm1": "xHE-AAC",
	"mhm2": "xHE-AAC v2",
	"ac-3": "AC-3",
	"ec-3": "E-AC-3",
	"ac-4": "AC-4",
	"alac": "Apple Lossless",
	"flac": "FLAC",
	"opus": "Opus",
	"mp3 ": "MP3",
	".mp3": "MP3",
}

// aacProfiles maps AAC Audio Object Types (read from the esds
// DecoderSpecificInfo) to profile names.
var aacProfiles = map[uint8]string{
	1:  "AAC Main",
	2:  "AAC-LC",
	3:  "AAC-SSR",
	4:  "AAC-LTP",
	5:  "HE-AAC",
	6:  "AAC Scalable",
	29: "HE-AAC v2",
	42: "xHE-AAC",
}

func codecName(fourCC string) string {
	if name, ok := codecNames[fourCC]; ok {
		return name
	}
	return fourCC
}

// aacProfile looks for an esds box within the first few hundred bytes of
// an mp4a sample entry and decodes its audio object type. Scans for the
// "esds" fourCC directly rather than walking the entry as a proper box
// tree, since the sample entry's own fixed fields (channel count, sample
// rate) precede it at a version-dependent offset not worth modeling
// fully for a profile string.
func aacProfile(sr *binutil.SafeReader, sampleEntryOffset int64, fileSize int64) string {
	searchLen := int64(256)
	if sampleEntryOffset+searchLen > fileSize {
		searchLen = fileSize - sampleEntryOffset
	}
	if searchLen <= 4 {
		return ""
	}

	searchBuf := make([]byte, searchLen)
	if err := sr.ReadAt(searchBuf, sampleEntryOffset, "esds search buffer"); err != nil {
		return ""
	}

	esdsOffset := int64(-1)
	for i := 0; i < len(searchBuf)-4; i++ {
		if string(searchBuf[i:i+4]) == "esds" {
			esdsOffset = sampleEntryOffset + int64(i) - 4
			break
		}
	}
	if esdsOffset < 0 {
		return ""
	}

	esdsSize, err := binutil.Read[uint32](sr, esdsOffset, "esds size")
	if err != nil || esdsSize < 12 || esdsSize > 1024 {
		return ""
	}

	dataSize := int64(esdsSize) - 12
	if dataSize <= 0 || dataSize > 512 || esdsOffset+12+dataSize > fileSize {
		return ""
	}

	esdsData := make([]byte, dataSize)
	if err := sr.ReadAt(esdsData, esdsOffset+12, "esds data"); err != nil {
		return ""
	}

	objType := parseESDescriptorAudioObjectType(esdsData)
	if objType == 0 {
		return ""
	}
	return aacProfiles[objType]
}

// parseESDescriptorAudioObjectType walks the MPEG-4 descriptor
// hierarchy's variable-length size fields looking for an embedded
// DecoderConfigDescriptor (tag 0x04), skips its 13 fixed bytes, and reads
// the audio object type from the top 5 bits of the DecoderSpecificInfo
// (tag 0x05) that follows, including the escape form for types above 31.
func parseESDescriptorAudioObjectType(data []byte) uint8 {
	pos := 0

	readSize := func() int {
		size := 0
		for i := 0; i < 4; i++ {
			if pos >= len(data) {
				return -1
			}
			b := data[pos]
			pos++
			size = (size << 7) | int(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
		return size
	}

	for pos < len(data) {
		if data[pos] == 0x03 {
			pos++
			if readSize() < 0 {
				return 0
			}
			pos += 3 // ES_ID (2) + flags (1)

			if pos < len(data) && data[pos] == 0x04 {
				pos++
				if readSize() < 0 {
					return 0
				}
				pos += 13 // objectTypeIndication, streamType, bufferSizeDB, max/avg bitrate
				if pos >= len(data) || data[pos] != 0x05 {
					return 0
				}
				pos++
				if readSize() < 0 || pos >= len(data) {
					return 0
				}
				aot := data[pos] >> 3
				if aot == 31 && pos+1 < len(data) {
					aot = 32 + ((data[pos]&0x07)<<3 | data[pos+1]>>5)
				}
				return aot
			}
			continue
		}
		pos++
	}

	return 0
}
