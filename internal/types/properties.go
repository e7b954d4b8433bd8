package types

import "time"

// FileProperties holds the technical audio properties of a parsed file
// (spec §4.5 "properties"), generalizing the teacher's AudioInfo with the
// extra fields needed across all ten container kinds (signed sample
// depth for AIFF, overall bitrate split from audio bitrate for MP4, a
// codec string that can name AAC/ALAC/Opus/Speex profiles, and so on).
type FileProperties struct {
	Duration         time.Duration
	OverallBitrate   int // kbps, includes container overhead
	AudioBitrate     int // kbps, audio stream only
	SampleRate       int
	BitDepth         int
	Channels         int
	Codec            string
	CodecDescription string
	Lossless         bool
	VBR              bool
	ReplayGain       *ReplayGain
}

// ReplayGain carries loudness-normalization metadata pulled from either a
// Vorbis Comment (REPLAYGAIN_*) or ID3v2 RVA2/TXXX frame.
type ReplayGain struct {
	TrackGain float64
	TrackPeak float64
	AlbumGain float64
	AlbumPeak float64
}
