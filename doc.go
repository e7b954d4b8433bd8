// Package lofty provides format-agnostic audio metadata reading and
// writing.
//
// lofty supports ten container formats behind one API: FLAC, MPEG
// (MP1/2/3), AAC (bare ADTS streams), Ogg Vorbis/Opus/Speex, MP4/M4A,
// WAV, AIFF, APE (Monkey's Audio), Musepack, and WavPack.
//
// # Quick Start
//
// Reading metadata from an audio file:
//
//	f, err := lofty.Open("song.flac")
//	if err != nil {
//		log.Fatal(err)
//	}
//	tag := f.PrimaryTag()
//	fmt.Printf("%s - %s\n", tag.Get(lofty.TrackArtist), tag.Get(lofty.TrackTitle))
//	fmt.Printf("Duration: %s\n", f.Properties.Duration)
//
// # Philosophy
//
// lofty follows the same three commitments across every format it reads:
//
//  1. Performance: metadata is parsed without reading audio data into
//     memory; artwork is extracted lazily on request.
//  2. Graceful degradation: a malformed chunk, atom, or frame becomes a
//     Warning, not a fatal error, unless ParsingMode is Strict.
//  3. Zero surprises: every option has a sensible, documented default,
//     and nothing logs unless a Logger was attached.
//
// # Architecture
//
//	[Probe]          - detects FileType from magic bytes (spec §4.1)
//	  └─ [TaggedFile] - FileType + Properties + Tags + Pictures + Chapters
//
// Each container format implements the same internal parser/writer
// interface, registered at init() time, so adding a format never touches
// the public API.
//
// # Writing changes back
//
//	f.PrimaryTag().Set(lofty.TrackTitle, "New Title")
//	if err := f.Save(); err != nil {
//		log.Fatal(err)
//	}
//
// # Custom file types
//
// A caller that needs to recognize a format lofty doesn't know about can
// register a resolver consulted after the built-in probe fails:
//
//	lofty.RegisterCustomResolver("my-format", lofty.ResolverFunc(func(header []byte, size int64) (lofty.FileType, bool) {
//		if bytes.HasPrefix(header, []byte("MYFMT")) {
//			return lofty.Custom("MyFormat"), true
//		}
//		return lofty.Unknown, false
//	}))
package lofty
