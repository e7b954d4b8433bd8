package types

import (
	"iter"
	"slices"
)

// TagType identifies which concrete tag format a Tag value came from.
// A TaggedFile can carry more than one (e.g. an MP3 with both an ID3v1
// and an ID3v2 tag), which is why Tags is a slice rather than a struct.
//
//go:generate stringer -type=TagType -linecomment
type TagType int

const (
	TagUnknown        TagType = iota // Unknown
	TagID3v1                         // ID3v1
	TagID3v2                         // ID3v2
	TagApe                           // APEv2
	TagVorbisComments                // VorbisComments
	TagMp4Ilst                       // Mp4Ilst
	TagRIFFInfo                      // RIFFInfo
	TagAIFFText                      // AIFFText
)

// Tag is the common interface every sibling tag implementation satisfies.
// It mirrors lofty-rs's `Tag` trait: format-agnostic item access over a
// format-specific storage model. Concrete types (Id3v2Tag, VorbisComments,
// ApeTag, Mp4Ilst, RIFFInfoList, AIFFTextChunks) each wrap a genericTag and
// only differ in TagType() and which ItemKeys their container supports.
type Tag interface {
	TagType() TagType
	Get(ItemKey) string
	GetAll(ItemKey) []string
	Set(key ItemKey, values ...string)
	Remove(key ItemKey)
	Items() iter.Seq2[ItemKey, []string]
	Pictures() []Picture
	SetPictures(pics []Picture)
	Len() int
}

// genericTag is the shared key/value + picture store backing every
// concrete Tag implementation (generalizes the teacher's types.Tags raw
// map + struct-field design into a single ItemKey-keyed map, since every
// sibling tag here needs the same Get/Set/Items/Merge machinery and only
// differs in which native keys map to which ItemKeys).
type genericTag struct {
	items    map[ItemKey][]string
	pictures []Picture
}

func newGenericTag() *genericTag {
	return &genericTag{items: make(map[ItemKey][]string)}
}

func (t *genericTag) Get(key ItemKey) string {
	v := t.GetAll(key)
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func (t *genericTag) GetAll(key ItemKey) []string {
	if t.items == nil {
		return nil
	}
	return slices.Clone(t.items[key])
}

func (t *genericTag) Set(key ItemKey, values ...string) {
	if t.items == nil {
		t.items = make(map[ItemKey][]string)
	}
	if len(values) == 0 {
		delete(t.items, key)
		return
	}
	t.items[key] = slices.Clone(values)
}

func (t *genericTag) Remove(key ItemKey) {
	delete(t.items, key)
}

func (t *genericTag) Items() iter.Seq2[ItemKey, []string] {
	return func(yield func(ItemKey, []string) bool) {
		for k, v := range t.items {
			if !yield(k, v) {
				return
			}
		}
	}
}

func (t *genericTag) Pictures() []Picture { return t.pictures }

func (t *genericTag) SetPictures(pics []Picture) { t.pictures = pics }

func (t *genericTag) Len() int { return len(t.items) }

// Id3v1Tag is the fixed-layout 128-byte trailer tag (spec §4.3 "ID3v1").
// It has no picture support and only a handful of fixed fields, but is
// modeled as a genericTag for API uniformity; the ID3v1 reader/writer
// only ever populates the small set of ItemKeys the format supports.
type Id3v1Tag struct{ *genericTag }

func NewId3v1Tag() *Id3v1Tag { return &Id3v1Tag{newGenericTag()} }
func (Id3v1Tag) TagType() TagType { return TagID3v1 }

// Id3v2Tag wraps the full ID3v2.2/.3/.4 frame model.
type Id3v2Tag struct {
	*genericTag
	// Version is the minor ID3v2 version this tag was read as (2, 3, or 4).
	Version int
}

func NewId3v2Tag() *Id3v2Tag { return &Id3v2Tag{genericTag: newGenericTag(), Version: 4} }
func (Id3v2Tag) TagType() TagType { return TagID3v2 }

// ApeTag wraps an APEv2 tag (APE, MPC, WavPack, or an MP3 using APE tags
// instead of ID3v2).
type ApeTag struct{ *genericTag }

func NewApeTag() *ApeTag { return &ApeTag{newGenericTag()} }
func (ApeTag) TagType() TagType { return TagApe }

// VorbisComments wraps the Vorbis Comment key=value block shared by FLAC,
// Ogg Vorbis, Opus, and Speex.
type VorbisComments struct {
	*genericTag
	Vendor string
}

func NewVorbisComments() *VorbisComments {
	return &VorbisComments{genericTag: newGenericTag()}
}
func (VorbisComments) TagType() TagType { return TagVorbisComments }

// Mp4Ilst wraps an MP4 `moov/udta/meta/ilst` atom.
type Mp4Ilst struct{ *genericTag }

func NewMp4Ilst() *Mp4Ilst { return &Mp4Ilst{newGenericTag()} }
func (Mp4Ilst) TagType() TagType { return TagMp4Ilst }

// RIFFInfoList wraps a WAV `LIST/INFO` chunk.
type RIFFInfoList struct{ *genericTag }

func NewRIFFInfoList() *RIFFInfoList { return &RIFFInfoList{newGenericTag()} }
func (RIFFInfoList) TagType() TagType { return TagRIFFInfo }

// AIFFTextChunks wraps an AIFF file's NAME/AUTH/(c) /ANNO text chunks.
type AIFFTextChunks struct{ *genericTag }

func NewAIFFTextChunks() *AIFFTextChunks { return &AIFFTextChunks{newGenericTag()} }
func (AIFFTextChunks) TagType() TagType { return TagAIFFText }
