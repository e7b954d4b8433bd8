package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// TaggedFile is the result of a parse: the detected FileType, the
// technical Properties, and every Tag found in the file. A file can
// carry more than one tag at once (an APE file with both ID3v2 and
// APEv2, say); use PrimaryTag for the one the format favors, or TagByType
// to look up a specific kind.
type TaggedFile = types.TaggedFile
