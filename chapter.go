package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// Chapter represents a chapter marker in an audio file (MP4 QuickTime
// chapter tracks and Nero chpl atoms, ID3v2 CHAP frames, FLAC CUESHEET
// blocks, and Ogg Vorbis/Opus CHAPTER comments all normalize to this).
type Chapter = types.Chapter
