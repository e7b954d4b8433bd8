package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// ItemKey is a format-agnostic tag field identifier. Every container's
// tag implementation maps its native keys onto this set where a mapping
// exists, and falls back to UnknownKey(key) otherwise.
type ItemKey = types.ItemKey

// Standard item keys, re-exported from internal/types.
const (
	TrackTitle    = types.TrackTitle
	TrackSubtitle = types.TrackSubtitle
	TrackNumber   = types.TrackNumber
	TrackTotal    = types.TrackTotal
	DiscNumber    = types.DiscNumber
	DiscTotal     = types.DiscTotal

	AlbumTitle  = types.AlbumTitle
	AlbumArtist = types.AlbumArtist

	TrackArtist = types.TrackArtist
	Composer    = types.Composer
	Conductor   = types.Conductor
	Genre       = types.Genre

	Comment       = types.Comment
	Lyrics        = types.Lyrics
	Grouping      = types.Grouping
	Copyright     = types.Copyright
	Label         = types.Label
	CatalogNumber = types.CatalogNumber
	Barcode       = types.Barcode
	ISRC          = types.ISRC

	RecordingDate = types.RecordingDate
	OriginalDate  = types.OriginalDate
	Year          = types.Year

	Narrator   = types.Narrator
	Publisher  = types.Publisher
	Series     = types.Series
	SeriesPart = types.SeriesPart
	ISBN       = types.ISBN
	ASIN       = types.ASIN

	MusicBrainzTrackID  = types.MusicBrainzTrackID
	MusicBrainzAlbumID  = types.MusicBrainzAlbumID
	MusicBrainzArtistID = types.MusicBrainzArtistID

	ReplayGainTrackGain = types.ReplayGainTrackGain
	ReplayGainTrackPeak = types.ReplayGainTrackPeak
	ReplayGainAlbumGain = types.ReplayGainAlbumGain
	ReplayGainAlbumPeak = types.ReplayGainAlbumPeak

	EncodedBy = types.EncodedBy
	Encoder   = types.Encoder
)

// UnknownKey builds an ItemKey for a tag field this library has no standard
// mapping for. The raw native key is preserved so round-tripping through
// Save never loses data.
func UnknownKey(rawKey string) ItemKey { return types.Unknown(rawKey) }
