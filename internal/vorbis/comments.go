// Package vorbis provides shared Vorbis Comment parsing and emission,
// used by FLAC's VORBIS_COMMENT block and Ogg Vorbis/Opus/Speex's
// comment header packet alike (spec §4.2 "Ogg Vorbis/Opus/Speex" and
// "FLAC").
package vorbis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

// ParseComment parses a single "KEY=VALUE" Vorbis comment and applies it
// to tag, mapping known keys onto ItemKeys and falling back to
// types.Unknown(key) for anything else (generalizes the teacher's
// internal/vorbis/comments.go from a flattened Tags struct to the
// ItemKey model).
func ParseComment(comment string, tag *types.VorbisComments, props *types.FileProperties) error { //nolint:gocyclo
	eq := strings.IndexByte(comment, '=')
	if eq == -1 {
		return fmt.Errorf("missing '=' in comment: %s", comment)
	}

	key := strings.ToUpper(comment[:eq])
	value := comment[eq+1:]

	switch key {
	case "TITLE":
		tag.Set(types.TrackTitle, value)
	case "SUBTITLE":
		tag.Set(types.TrackSubtitle, value)
	case "ARTIST":
		tag.Set(types.TrackArtist, value)
	case "ALBUM":
		tag.Set(types.AlbumTitle, value)
	case "ALBUMARTIST":
		tag.Set(types.AlbumArtist, value)
	case "DATE":
		tag.Set(types.RecordingDate, value)
	case "ORIGINALDATE":
		tag.Set(types.OriginalDate, value)
	case "TRACKNUMBER":
		tag.Set(types.TrackNumber, value)
	case "TRACKTOTAL", "TOTALTRACKS":
		tag.Set(types.TrackTotal, value)
	case "DISCNUMBER":
		tag.Set(types.DiscNumber, value)
	case "DISCTOTAL", "TOTALDISCS":
		tag.Set(types.DiscTotal, value)
	case "GENRE":
		tag.Set(types.Genre, append(tag.GetAll(types.Genre), value)...)
	case "COMPOSER":
		tag.Set(types.Composer, value)
	case "COMMENT":
		tag.Set(types.Comment, value)
	case "LYRICS":
		tag.Set(types.Lyrics, value)
	case "NARRATOR":
		tag.Set(types.Narrator, value)
	case "PUBLISHER":
		tag.Set(types.Publisher, value)
	case "SERIES":
		tag.Set(types.Series, value)
	case "SERIESPART":
		tag.Set(types.SeriesPart, value)
	case "ISBN":
		tag.Set(types.ISBN, value)
	case "ASIN", "AUDIBLE_ASIN":
		tag.Set(types.ASIN, value)
	case "MUSICBRAINZ_TRACKID":
		tag.Set(types.MusicBrainzTrackID, value)
	case "MUSICBRAINZ_ALBUMID":
		tag.Set(types.MusicBrainzAlbumID, value)
	case "MUSICBRAINZ_ARTISTID":
		tag.Set(types.MusicBrainzArtistID, value)
	case "ISRC":
		tag.Set(types.ISRC, value)
	case "BARCODE":
		tag.Set(types.Barcode, value)
	case "CATALOGNUMBER":
		tag.Set(types.CatalogNumber, value)
	case "LABEL":
		tag.Set(types.Label, value)
	case "COPYRIGHT":
		tag.Set(types.Copyright, value)
	case "REPLAYGAIN_TRACK_GAIN":
		replayGain(props).TrackGain = parseGainValue(value)
	case "REPLAYGAIN_TRACK_PEAK":
		replayGain(props).TrackPeak = parseGainPeak(value)
	case "REPLAYGAIN_ALBUM_GAIN":
		replayGain(props).AlbumGain = parseGainValue(value)
	case "REPLAYGAIN_ALBUM_PEAK":
		replayGain(props).AlbumPeak = parseGainPeak(value)
	default:
		tag.Set(types.Unknown(key), value)
	}

	return nil
}

func replayGain(props *types.FileProperties) *types.ReplayGain {
	if props.ReplayGain == nil {
		props.ReplayGain = &types.ReplayGain{}
	}
	return props.ReplayGain
}

func parseGainValue(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " dB")
	s = strings.TrimSuffix(s, "dB")
	val, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return val
}

func parseGainPeak(s string) float64 {
	val, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return val
}

// Emit serializes tag back into a list of "KEY=VALUE" comment strings
// (without the vendor string or comment count, which the FLAC and
// Ogg writers prepend themselves since their framing differs).
func Emit(tag *types.VorbisComments) []string {
	var out []string
	for key, values := range tag.Items() {
		upper := vorbisKeyFor(key)
		if upper == "" {
			continue
		}
		for _, v := range values {
			out = append(out, upper+"="+v)
		}
	}
	return out
}

func vorbisKeyFor(key types.ItemKey) string {
	if strings.HasPrefix(string(key), "UNKNOWN:") {
		return strings.TrimPrefix(string(key), "UNKNOWN:")
	}
	switch key {
	case types.TrackTitle:
		return "TITLE"
	case types.TrackSubtitle:
		return "SUBTITLE"
	case types.TrackArtist:
		return "ARTIST"
	case types.AlbumTitle:
		return "ALBUM"
	case types.AlbumArtist:
		return "ALBUMARTIST"
	case types.RecordingDate:
		return "DATE"
	case types.OriginalDate:
		return "ORIGINALDATE"
	case types.TrackNumber:
		return "TRACKNUMBER"
	case types.TrackTotal:
		return "TRACKTOTAL"
	case types.DiscNumber:
		return "DISCNUMBER"
	case types.DiscTotal:
		return "DISCTOTAL"
	case types.Genre:
		return "GENRE"
	case types.Composer:
		return "COMPOSER"
	case types.Comment:
		return "COMMENT"
	case types.Lyrics:
		return "LYRICS"
	case types.Narrator:
		return "NARRATOR"
	case types.Publisher:
		return "PUBLISHER"
	case types.Series:
		return "SERIES"
	case types.SeriesPart:
		return "SERIESPART"
	case types.ISBN:
		return "ISBN"
	case types.ASIN:
		return "ASIN"
	case types.MusicBrainzTrackID:
		return "MUSICBRAINZ_TRACKID"
	case types.MusicBrainzAlbumID:
		return "MUSICBRAINZ_ALBUMID"
	case types.MusicBrainzArtistID:
		return "MUSICBRAINZ_ARTISTID"
	case types.ISRC:
		return "ISRC"
	case types.Barcode:
		return "BARCODE"
	case types.CatalogNumber:
		return "CATALOGNUMBER"
	case types.Label:
		return "LABEL"
	case types.Copyright:
		return "COPYRIGHT"
	default:
		return ""
	}
}
