package mp4

import (
	"time"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// parseTechnicalInfo fills file.Properties from the moov/trak/mdia/mdhd
// (timescale, duration) and …/stsd/<codec> (channels, sample rate, bit
// depth) paths the spec names, generalizing the teacher's
// mvhd-for-duration approach (which used the movie-level header rather
// than the audio track's own) to follow the per-track mdhd the spec
// calls out explicitly.
func parseTechnicalInfo(sr *binutil.SafeReader, moovAtom *atom, fileSize int64, file *types.TaggedFile) error {
	trakAtom, err := findAtom(sr, moovAtom.DataOffset(), moovAtom.DataOffset()+int64(moovAtom.DataSize()), fileSize, "trak")
	if err != nil {
		return nil
	}

	mdiaAtom, err := findAtom(sr, trakAtom.DataOffset(), trakAtom.DataOffset()+int64(trakAtom.DataSize()), fileSize, "mdia")
	if err != nil {
		return nil
	}

	mdhdAtom, err := findAtom(sr, mdiaAtom.DataOffset(), mdiaAtom.DataOffset()+int64(mdiaAtom.DataSize()), fileSize, "mdhd")
	if err == nil {
		if perr := parseMdhd(sr, mdhdAtom, file); perr != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: "failed to parse mdhd: " + perr.Error()})
		}
	}

	minfAtom, err := findAtom(sr, mdiaAtom.DataOffset(), mdiaAtom.DataOffset()+int64(mdiaAtom.DataSize()), fileSize, "minf")
	if err != nil {
		return nil
	}
	stblAtom, err := findAtom(sr, minfAtom.DataOffset(), minfAtom.DataOffset()+int64(minfAtom.DataSize()), fileSize, "stbl")
	if err != nil {
		return nil
	}
	stsdAtom, err := findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), fileSize, "stsd")
	if err != nil {
		return nil
	}

	if perr := parseStsd(sr, stsdAtom, fileSize, file); perr != nil {
		file.Warnings = append(file.Warnings, types.Warning{Stage: "properties", Message: "failed to parse stsd: " + perr.Error()})
	}

	if file.Properties.Duration > 0 && fileSize > 0 {
		durationSec := file.Properties.Duration.Seconds()
		if durationSec > 0 {
			file.Properties.OverallBitrate = int((float64(fileSize) * 8 / 1000) / durationSec)
		}
	}

	return nil
}

// parseMdhd parses the media header atom for timescale/duration, which
// the spec designates as the duration source (rather than the
// movie-level mvhd, whose duration can disagree with an individual
// track's in files with multiple tracks at different rates).
func parseMdhd(sr *binutil.SafeReader, mdhdAtom *atom, file *types.TaggedFile) error {
	offset := mdhdAtom.DataOffset()

	version, err := binutil.Read[uint8](sr, offset, "mdhd version")
	if err != nil {
		return err
	}
	offset += 4 // version + 3-byte flags

	var timescale uint32
	var duration uint64

	if version == 1 {
		offset += 16 // creation + modification time, 64-bit each
		timescale, err = binutil.Read[uint32](sr, offset, "mdhd timescale")
		if err != nil {
			return err
		}
		offset += 4
		duration, err = binutil.Read[uint64](sr, offset, "mdhd duration")
		if err != nil {
			return err
		}
	} else {
		offset += 8 // creation + modification time, 32-bit each
		timescale, err = binutil.Read[uint32](sr, offset, "mdhd timescale")
		if err != nil {
			return err
		}
		offset += 4
		duration32, err := binutil.Read[uint32](sr, offset, "mdhd duration")
		if err != nil {
			return err
		}
		duration = uint64(duration32)
	}

	if timescale > 0 {
		durationNs := (int64(duration) * int64(time.Second)) / int64(timescale)
		file.Properties.Duration = time.Duration(durationNs)
	}

	return nil
}

// parseStsd parses the sample description atom's first audio sample
// entry for codec fourCC, channel count, bit depth, and sample rate.
func parseStsd(sr *binutil.SafeReader, stsdAtom *atom, fileSize int64, file *types.TaggedFile) error {
	offset := stsdAtom.DataOffset() + 4 // version + flags

	numEntries, err := binutil.Read[uint32](sr, offset, "stsd entry count")
	if err != nil {
		return err
	}
	offset += 4

	if numEntries == 0 {
		return nil
	}

	offset += 4 // entry size
	formatBytes := make([]byte, 4)
	if err := sr.ReadAt(formatBytes, offset, "stsd format"); err != nil {
		return err
	}
	offset += 4

	codec := string(formatBytes)
	file.Properties.Codec = codec
	file.Properties.CodecDescription = codecName(codec)
	if codec == "mp4a" {
		if profile := aacProfile(sr, stsdAtom.DataOffset()+8, fileSize); profile != "" {
			file.Properties.CodecDescription = profile
		}
	}
	if codec == "alac" || codec == "flac" {
		file.Properties.Lossless = true
	}

	offset += 6 + 2 // reserved, data reference index

	offset += 2 // audio sample entry version
	offset += 6 // revision level + vendor

	channels, err := binutil.Read[uint16](sr, offset, "channels")
	if err != nil {
		return err
	}
	file.Properties.Channels = int(channels)
	offset += 2

	sampleSize, err := binutil.Read[uint16](sr, offset, "sample size")
	if err != nil {
		return err
	}
	file.Properties.BitDepth = int(sampleSize)
	offset += 2

	offset += 4 // compression id + packet size

	sampleRateFixed, err := binutil.Read[uint32](sr, offset, "sample rate")
	if err != nil {
		return err
	}
	file.Properties.SampleRate = int(sampleRateFixed >> 16)

	return nil
}
