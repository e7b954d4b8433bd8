package flac

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

// buildMinimalFLAC assembles a FLAC stream with a STREAMINFO block (1s
// @ 44.1kHz/16-bit/stereo) followed by a VORBIS_COMMENT block carrying
// the given tags, mirroring the teacher's createMinimalFLAC helper.
func buildMinimalFLAC(title, artist, album string) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(Magic)

	buf.WriteByte(0x00) // STREAMINFO, not last
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(0x22) // 34 bytes

	binary.Write(buf, binary.BigEndian, uint16(4096))
	binary.Write(buf, binary.BigEndian, uint16(4096))
	buf.Write([]byte{0, 0, 0}) // min frame size
	buf.Write([]byte{0, 0, 0}) // max frame size

	sampleRate := uint64(44100)
	channels := uint64(1)     // stored as channels-1
	bitsPerSample := uint64(15) // stored as bits-1
	totalSamples := uint64(44100)
	packed := (sampleRate << 44) | (channels << 41) | (bitsPerSample << 36) | totalSamples
	binary.Write(buf, binary.BigEndian, packed)
	buf.Write(make([]byte, 16)) // MD5

	commentData := &bytes.Buffer{}
	vendor := "lofty-go"
	binary.Write(commentData, binary.LittleEndian, uint32(len(vendor)))
	commentData.WriteString(vendor)

	var comments []string
	if title != "" {
		comments = append(comments, "TITLE="+title)
	}
	if artist != "" {
		comments = append(comments, "ARTIST="+artist)
	}
	if album != "" {
		comments = append(comments, "ALBUM="+album)
	}

	binary.Write(commentData, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(commentData, binary.LittleEndian, uint32(len(c)))
		commentData.WriteString(c)
	}

	commentLen := commentData.Len()
	buf.WriteByte(0x84) // VORBIS_COMMENT, last
	buf.WriteByte(byte(commentLen >> 16))
	buf.WriteByte(byte(commentLen >> 8))
	buf.WriteByte(byte(commentLen))
	buf.Write(commentData.Bytes())

	return buf.Bytes()
}

func TestParseSuccess(t *testing.T) {
	data := buildMinimalFLAC("Test Song", "Test Artist", "Test Album")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.flac", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.FileType != types.FLAC {
		t.Errorf("expected FileType FLAC, got %v", file.FileType)
	}

	tag := file.PrimaryTag()
	if tag == nil {
		t.Fatal("expected a tag, got nil")
	}
	if got := tag.Get(types.TrackTitle); got != "Test Song" {
		t.Errorf("title: got %q", got)
	}
	if got := tag.Get(types.TrackArtist); got != "Test Artist" {
		t.Errorf("artist: got %q", got)
	}
	if got := tag.Get(types.AlbumTitle); got != "Test Album" {
		t.Errorf("album: got %q", got)
	}

	if !file.Properties.Lossless {
		t.Error("expected lossless true")
	}
	if file.Properties.Codec != "FLAC" {
		t.Errorf("expected codec FLAC, got %q", file.Properties.Codec)
	}
	if file.Properties.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", file.Properties.SampleRate)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
	if file.Properties.BitDepth != 16 {
		t.Errorf("expected 16-bit depth, got %d", file.Properties.BitDepth)
	}

	wantNanos := int64(1_000_000_000)
	if got := file.Properties.Duration.Nanoseconds(); got < wantNanos*9/10 || got > wantNanos*11/10 {
		t.Errorf("expected duration ~1s, got %v", file.Properties.Duration)
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte("INVALID")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.flac", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected error for invalid magic, got nil")
	}

	var lerr *types.Error
	if !asLoftyError(err, &lerr) {
		t.Fatalf("expected *types.Error, got %T: %v", err, err)
	}
	if lerr.Kind != types.ErrFakeData {
		t.Errorf("expected ErrFakeData, got %v", lerr.Kind)
	}
}

func asLoftyError(err error, target **types.Error) bool {
	e, ok := err.(*types.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestExtractArtworkNoPictures(t *testing.T) {
	data := buildMinimalFLAC("Test", "Artist", "Album")
	r := bytes.NewReader(data)

	pics, err := (&parser{}).ExtractArtwork(r, int64(len(data)), "test.flac", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("ExtractArtwork failed: %v", err)
	}
	if len(pics) != 0 {
		t.Errorf("expected no pictures, got %d", len(pics))
	}
}

func TestParseVorbisCommentAllocationLimit(t *testing.T) {
	data := buildMinimalFLAC("Test", "Artist", "Album")
	r := bytes.NewReader(data)

	opts := types.DefaultParseOptions()
	opts.AllocationLimit = 4 // far smaller than the vendor string itself

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.flac", opts)
	if err != nil {
		t.Fatalf("Parse should recover via a warning, not fail outright: %v", err)
	}
	if len(file.Warnings) == 0 {
		t.Error("expected a warning recording the allocation-limit rejection")
	}
}
