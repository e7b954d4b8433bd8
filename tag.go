package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// TagType identifies which concrete tag format a Tag value came from.
// A TaggedFile can carry more than one (e.g. an APE file with both an
// ID3v2 and an APEv2 tag), which is why TaggedFile.Tags is a slice.
type TagType = types.TagType

// Tag kinds, re-exported from internal/types.
const (
	TagUnknown        = types.TagUnknown
	TagID3v1          = types.TagID3v1
	TagID3v2          = types.TagID3v2
	TagApe            = types.TagApe
	TagVorbisComments = types.TagVorbisComments
	TagMp4Ilst        = types.TagMp4Ilst
	TagRIFFInfo       = types.TagRIFFInfo
	TagAIFFText       = types.TagAIFFText
)

// Tag is the common interface every sibling tag implementation satisfies:
// format-agnostic item access over a format-specific storage model.
type Tag = types.Tag

// Concrete tag types, re-exported from internal/types. Type-assert a Tag
// value to one of these when a field their native format doesn't support
// the unified model needs direct access.
type (
	Id3v1Tag       = types.Id3v1Tag
	Id3v2Tag       = types.Id3v2Tag
	VorbisComments = types.VorbisComments
	ApeTag         = types.ApeTag
	Mp4Ilst        = types.Mp4Ilst
	RIFFInfoList   = types.RIFFInfoList
	AIFFTextChunks = types.AIFFTextChunks
)

// Constructors for building a fresh tag of a given kind before attaching
// it to a TaggedFile and calling Save.
var (
	NewId3v1Tag       = types.NewId3v1Tag
	NewId3v2Tag       = types.NewId3v2Tag
	NewVorbisComments = types.NewVorbisComments
	NewApeTag         = types.NewApeTag
	NewMp4Ilst        = types.NewMp4Ilst
	NewRIFFInfoList   = types.NewRIFFInfoList
	NewAIFFTextChunks = types.NewAIFFTextChunks
)
