package types

import "fmt"

// PictureType categorizes embedded artwork, using the ID3v2 APIC picture
// type byte as the canonical numbering (FLAC PICTURE blocks and MP4 covr
// atoms are mapped onto the same scale on read).
//
//go:generate stringer -type=PictureType -linecomment
type PictureType int

const (
	PictureOther             PictureType = iota // Other
	PictureIcon                                  // FileIcon
	PictureOtherIcon                             // OtherFileIcon
	PictureFrontCover                            // CoverFront
	PictureBackCover                              // CoverBack
	PictureLeaflet                                // Leaflet
	PictureMedia                                  // Media
	PictureLeadArtist                             // LeadArtist
	PictureArtist                                  // Artist
	PictureConductor                               // Conductor
	PictureBand                                    // Band
	PictureComposer                                // Composer
	PictureLyricist                                // Lyricist
	PictureRecordingLocation                       // RecordingLocation
	PictureDuringRecording                         // DuringRecording
	PictureDuringPerformance                       // DuringPerformance
	PictureScreenCapture                           // MovieScreenCapture
	PictureBrightFish                              // BrightFish
	PictureIllustration                            // Illustration
	PictureBandLogo                                // BandLogo
	PicturePublisherLogo                           // PublisherLogo
)

// Picture is embedded artwork, mirroring lofty-rs's Picture type. Every
// container reader produces Picture values uniformly, regardless of
// whether the source format stores dimensions (FLAC PICTURE blocks do;
// ID3v2 APIC frames and MP4 covr atoms don't, leaving Width/Height zero
// unless they were sniffed from the image data itself).
type Picture struct {
	PicType     PictureType
	MIMEType    string
	Description string
	Data        []byte
	Width       int
	Height      int
}

func (p Picture) String() string {
	dims := ""
	if p.Width > 0 && p.Height > 0 {
		dims = fmt.Sprintf("%dx%d ", p.Width, p.Height)
	}
	return fmt.Sprintf("%s (%s%s, %d bytes)", p.PicType, dims, p.MIMEType, len(p.Data))
}
