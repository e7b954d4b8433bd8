package types

// FileType identifies the container format of an audio file.
//
// Unlike the teacher's Format enum, FileType is open-ended: custom
// resolvers (see internal/resolve) can register additional file types at
// runtime, so FileType carries a name rather than being a pure iota.
//
//go:generate stringer -type=wellKnownFileType -linecomment
type wellKnownFileType int

const (
	ftUnknown wellKnownFileType = iota // Unknown
	ftAAC                              // AAC
	ftAIFF                             // AIFF
	ftAPE                              // APE
	ftFLAC                             // FLAC
	ftMPC                              // MPC
	ftMPEG                             // MPEG
	ftMP4                              // MP4
	ftOgg                              // Ogg
	ftOpus                             // Opus
	ftSpeex                            // Speex
	ftVorbis                           // Vorbis
	ftWAV                              // WAV
	ftWavPack                          // WavPack
)

// FileType is a small value type identifying a container kind. Built-in
// file types compare equal by name; FileType.Custom constructs resolver-
// defined file types (spec §4.4 "custom resolvers").
type FileType struct {
	name string
}

func builtin(k wellKnownFileType) FileType { return FileType{name: k.String()} }

var (
	Unknown  = builtin(ftUnknown)
	AAC      = builtin(ftAAC)
	AIFF     = builtin(ftAIFF)
	APE      = builtin(ftAPE)
	FLAC     = builtin(ftFLAC)
	MPC      = builtin(ftMPC)
	MPEG     = builtin(ftMPEG)
	MP4      = builtin(ftMP4)
	Ogg      = builtin(ftOgg)
	Opus     = builtin(ftOpus)
	Speex    = builtin(ftSpeex)
	Vorbis   = builtin(ftVorbis)
	WAV      = builtin(ftWAV)
	WavPack  = builtin(ftWavPack)
)

// Custom returns a FileType identified by name, for use by custom
// resolvers registered through internal/resolve.
func Custom(name string) FileType { return FileType{name: name} }

// String returns the file type's name.
func (f FileType) String() string {
	if f.name == "" {
		return ftUnknown.String()
	}
	return f.name
}

// IsUnknown reports whether detection failed to identify a format.
func (f FileType) IsUnknown() bool { return f.name == "" || f == Unknown }

// PrimaryTagType returns the tag kind a fresh file of this type would get
// when none exists yet (spec §4.5 "primary tag").
func (f FileType) PrimaryTagType() TagType {
	switch f {
	case MPEG, AAC, APE:
		return TagID3v2
	case FLAC, Ogg, Opus, Speex, Vorbis:
		return TagVorbisComments
	case MP4:
		return TagMp4Ilst
	case WAV:
		return TagRIFFInfo
	case AIFF:
		return TagAIFFText
	default:
		return TagUnknown
	}
}

// SupportsTag reports whether this file type can carry the given tag kind
// at all, irrespective of whether one is currently present.
func (f FileType) SupportsTag(t TagType) bool {
	switch f {
	case MPEG, AAC:
		return t == TagID3v2 || t == TagID3v1
	case APE:
		return t == TagID3v2 || t == TagApe
	case FLAC:
		return t == TagVorbisComments
	case Ogg, Vorbis, Speex:
		return t == TagVorbisComments
	case Opus:
		return t == TagVorbisComments
	case MP4:
		return t == TagMp4Ilst
	case WAV:
		return t == TagRIFFInfo || t == TagID3v2
	case AIFF:
		return t == TagAIFFText || t == TagID3v2
	case MPC, WavPack:
		return t == TagApe
	default:
		return false
	}
}
