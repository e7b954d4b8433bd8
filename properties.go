package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// FileProperties holds the technical audio properties of a parsed file:
// duration, bitrate, sample rate, bit depth, channel count, and codec.
type FileProperties = types.FileProperties

// ReplayGain carries loudness-normalization metadata pulled from either
// a Vorbis Comment (REPLAYGAIN_*) or an ID3v2 RVA2/TXXX frame.
type ReplayGain = types.ReplayGain
