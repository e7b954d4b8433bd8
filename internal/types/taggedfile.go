package types

// TaggedFile is the result of a successful parse: the detected FileType,
// the technical Properties, and every Tag found in the file (spec §4.5).
//
// Unlike the teacher's flattened File{Tags Tags, Audio AudioInfo, ...}
// struct, TaggedFile keeps Tags as a slice of sum-typed Tag values: an
// MP3 can carry both an Id3v1Tag and an Id3v2Tag simultaneously, and
// callers that only care about "the" tag use PrimaryTag to pick the one
// the format favors.
type TaggedFile struct {
	FileType   FileType
	Properties FileProperties
	Tags       []Tag
	Pictures   []Picture
	Chapters   []Chapter
	Warnings   []Warning
}

// TagByType returns the first tag of the given kind, or nil if the file
// doesn't carry one.
func (f *TaggedFile) TagByType(t TagType) Tag {
	for _, tag := range f.Tags {
		if tag.TagType() == t {
			return tag
		}
	}
	return nil
}

// PrimaryTag returns the tag lofty considers authoritative for this file
// type: ID3v2 for MPEG/AAC/APE, Vorbis Comments for FLAC/Ogg family,
// ilst for MP4, RIFF INFO for WAV, AIFF text chunks for AIFF. Falls back
// to the first tag present if the preferred kind is absent.
func (f *TaggedFile) PrimaryTag() Tag {
	if tag := f.TagByType(f.FileType.PrimaryTagType()); tag != nil {
		return tag
	}
	if len(f.Tags) > 0 {
		return f.Tags[0]
	}
	return nil
}

// FirstTag is an alias for PrimaryTag kept for readability at call sites
// that just want "whatever tag is there."
func (f *TaggedFile) FirstTag() Tag { return f.PrimaryTag() }

// AllPictures merges Pictures found at the container level (FLAC PICTURE
// blocks, MP4 covr) with pictures embedded in any tag (ID3v2 APIC, APEv2
// Cover Art items).
func (f *TaggedFile) AllPictures() []Picture {
	all := make([]Picture, 0, len(f.Pictures))
	all = append(all, f.Pictures...)
	for _, tag := range f.Tags {
		all = append(all, tag.Pictures()...)
	}
	return all
}
