package types

import "time"

// Chapter represents a chapter marker, carried by MP4 chapter tracks,
// ID3v2 CHAP frames, FLAC CUESHEET blocks, and Ogg CHAPTERxx comments.
type Chapter struct {
	Index     int
	Title     string
	StartTime time.Duration
	EndTime   time.Duration
}
