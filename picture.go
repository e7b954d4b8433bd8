package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// Picture is embedded artwork: a container-level picture (FLAC PICTURE
// block, MP4 covr atom) or one attached to a tag (ID3v2 APIC, APEv2
// Cover Art item).
type Picture = types.Picture

// PictureType categorizes embedded artwork, using the ID3v2 APIC picture
// type byte as the canonical numbering.
type PictureType = types.PictureType

// Picture type constants, re-exported from internal/types.
const (
	PictureOther              = types.PictureOther
	PictureIcon               = types.PictureIcon
	PictureOtherIcon          = types.PictureOtherIcon
	PictureFrontCover         = types.PictureFrontCover
	PictureBackCover          = types.PictureBackCover
	PictureLeaflet            = types.PictureLeaflet
	PictureMedia              = types.PictureMedia
	PictureLeadArtist         = types.PictureLeadArtist
	PictureArtist             = types.PictureArtist
	PictureConductor          = types.PictureConductor
	PictureBand               = types.PictureBand
	PictureComposer           = types.PictureComposer
	PictureLyricist           = types.PictureLyricist
	PictureRecordingLocation  = types.PictureRecordingLocation
	PictureDuringRecording    = types.PictureDuringRecording
	PictureDuringPerformance  = types.PictureDuringPerformance
	PictureScreenCapture      = types.PictureScreenCapture
	PictureBrightFish         = types.PictureBrightFish
	PictureIllustration       = types.PictureIllustration
	PictureBandLogo           = types.PictureBandLogo
	PicturePublisherLogo      = types.PicturePublisherLogo
)
