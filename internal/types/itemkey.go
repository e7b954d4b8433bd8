package types

// ItemKey is a format-agnostic tag field identifier (spec §4.5's "unified
// item key" concept, mirroring lofty-rs's ItemKey enum). Every container's
// tag implementation maps its native keys (ID3v2 frame ids, Vorbis Comment
// field names, MP4 atom names, APEv2 item keys, RIFF INFO chunk ids) onto
// this set where a mapping exists, and falls back to Unknown(key) when it
// doesn't.
type ItemKey string

const (
	TrackTitle   ItemKey = "TRACK_TITLE"
	TrackSubtitle ItemKey = "TRACK_SUBTITLE"
	TrackNumber  ItemKey = "TRACK_NUMBER"
	TrackTotal   ItemKey = "TRACK_TOTAL"
	DiscNumber   ItemKey = "DISC_NUMBER"
	DiscTotal    ItemKey = "DISC_TOTAL"

	AlbumTitle  ItemKey = "ALBUM_TITLE"
	AlbumArtist ItemKey = "ALBUM_ARTIST"

	TrackArtist ItemKey = "TRACK_ARTIST"
	Composer    ItemKey = "COMPOSER"
	Conductor   ItemKey = "CONDUCTOR"
	Genre       ItemKey = "GENRE"

	Comment      ItemKey = "COMMENT"
	Lyrics       ItemKey = "LYRICS"
	Grouping     ItemKey = "GROUPING"
	Copyright    ItemKey = "COPYRIGHT"
	Label        ItemKey = "LABEL"
	CatalogNumber ItemKey = "CATALOG_NUMBER"
	Barcode      ItemKey = "BARCODE"
	ISRC         ItemKey = "ISRC"

	RecordingDate ItemKey = "RECORDING_DATE"
	OriginalDate  ItemKey = "ORIGINAL_RELEASE_DATE"
	Year          ItemKey = "YEAR"

	Narrator  ItemKey = "NARRATOR"
	Publisher ItemKey = "PUBLISHER"
	Series    ItemKey = "SERIES"
	SeriesPart ItemKey = "SERIES_PART"
	ISBN      ItemKey = "ISBN"
	ASIN      ItemKey = "ASIN"

	MusicBrainzTrackID  ItemKey = "MUSICBRAINZ_TRACK_ID"
	MusicBrainzAlbumID  ItemKey = "MUSICBRAINZ_ALBUM_ID"
	MusicBrainzArtistID ItemKey = "MUSICBRAINZ_ARTIST_ID"

	ReplayGainTrackGain ItemKey = "REPLAYGAIN_TRACK_GAIN"
	ReplayGainTrackPeak ItemKey = "REPLAYGAIN_TRACK_PEAK"
	ReplayGainAlbumGain ItemKey = "REPLAYGAIN_ALBUM_GAIN"
	ReplayGainAlbumPeak ItemKey = "REPLAYGAIN_ALBUM_PEAK"

	EncodedBy ItemKey = "ENCODED_BY"
	Encoder   ItemKey = "ENCODER_SETTINGS"
)

// Unknown builds an ItemKey for a tag field this port has no standard
// mapping for. The raw native key (e.g. "TXXX:MyField", "©wrk") is
// preserved so round-tripping through Write never loses data.
func Unknown(rawKey string) ItemKey { return ItemKey("UNKNOWN:" + rawKey) }
