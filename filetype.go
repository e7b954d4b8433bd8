package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// FileType identifies the container format of an audio file. It is an
// alias to internal/types.FileType to keep a single definition while
// giving external callers a stable, documented name.
type FileType = types.FileType

// Built-in file types, re-exported from internal/types.
var (
	Unknown = types.Unknown
	AAC     = types.AAC
	AIFF    = types.AIFF
	APE     = types.APE
	FLAC    = types.FLAC
	MPC     = types.MPC
	MPEG    = types.MPEG
	MP4     = types.MP4
	Ogg     = types.Ogg
	Opus    = types.Opus
	Speex   = types.Speex
	Vorbis  = types.Vorbis
	WAV     = types.WAV
	WavPack = types.WavPack
)

// Custom returns a FileType identified by name, for use by custom
// resolvers registered through RegisterCustomResolver.
func Custom(name string) FileType { return types.Custom(name) }
