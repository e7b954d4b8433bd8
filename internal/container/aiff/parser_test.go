package aiff

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

func buildCommChunk(channels uint16, sampleFrames uint32, sampleSize uint16, sampleRate float64) []byte {
	body := make([]byte, 18)
	binary.BigEndian.PutUint16(body[0:2], channels)
	binary.BigEndian.PutUint32(body[2:6], sampleFrames)
	binary.BigEndian.PutUint16(body[6:8], sampleSize)
	copy(body[8:18], encodeExtended(sampleRate))
	return wrapChunk("COMM", body)
}

func buildMinimalAIFF(title, artist string) []byte {
	comm := buildCommChunk(2, 44100, 16, 44100)
	name := wrapChunk("NAME", []byte(title))
	auth := wrapChunk("AUTH", []byte(artist))
	ssnd := wrapChunk("SSND", make([]byte, 44100*4+8))

	var body []byte
	body = append(body, []byte("AIFF")...)
	body = append(body, comm...)
	body = append(body, name...)
	body = append(body, auth...)
	body = append(body, ssnd...)

	header := make([]byte, 8)
	copy(header[0:4], "FORM")
	binary.BigEndian.PutUint32(header[4:8], uint32(len(body)))

	return append(header, body...)
}

func TestDecodeEncodeExtendedRoundTrip(t *testing.T) {
	for _, rate := range []float64{44100, 48000, 96000, 8000, 22050} {
		encoded := encodeExtended(rate)
		decoded := decodeExtended(encoded)
		if math.Abs(decoded-rate) > 0.01 {
			t.Errorf("round trip for %v: got %v", rate, decoded)
		}
	}
}

func TestParseAIFFSuccess(t *testing.T) {
	data := buildMinimalAIFF("Test Title", "Test Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.aiff", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.AIFF {
		t.Errorf("expected FileType AIFF, got %v", file.FileType)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
	if file.Properties.BitDepth != 16 {
		t.Errorf("expected 16-bit depth, got %d", file.Properties.BitDepth)
	}
	if math.Abs(float64(file.Properties.SampleRate)-44100) > 1 {
		t.Errorf("expected ~44100Hz, got %d", file.Properties.SampleRate)
	}
	if file.Properties.Duration <= 0 {
		t.Error("expected a positive duration")
	}

	if len(file.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(file.Tags))
	}
	tag, ok := file.Tags[0].(*types.AIFFTextChunks)
	if !ok {
		t.Fatalf("expected *types.AIFFTextChunks, got %T", file.Tags[0])
	}
	if got := tag.Get(types.TrackTitle); got != "Test Title" {
		t.Errorf("expected title %q, got %q", "Test Title", got)
	}
	if got := tag.Get(types.TrackArtist); got != "Test Artist" {
		t.Errorf("expected artist %q, got %q", "Test Artist", got)
	}
}

func TestParseInvalidForm(t *testing.T) {
	data := []byte("definitely not an aiff file.")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.aiff", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected an error for invalid FORM magic")
	}
}

func TestWriteAppendsID3Chunk(t *testing.T) {
	data := buildMinimalAIFF("Title", "Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.aiff", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	id3Tag := types.NewId3v2Tag()
	id3Tag.Set(types.TrackTitle, "ID3 Title")
	file.Tags = append(file.Tags, id3Tag)

	var out bytes.Buffer
	if err := (&writer{}).Write(&out, file, r, int64(len(data))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rewritten := out.Bytes()
	file2, err := (&parser{}).Parse(bytes.NewReader(rewritten), int64(len(rewritten)), "test.aiff", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("re-Parse after write failed: %v", err)
	}

	id3Tag2, ok := file2.TagByType(types.TagID3v2).(*types.Id3v2Tag)
	if !ok {
		t.Fatalf("expected an ID3v2 tag after write, tags: %#v", file2.Tags)
	}
	if got := id3Tag2.Get(types.TrackTitle); got != "ID3 Title" {
		t.Errorf("expected ID3v2 title %q, got %q", "ID3 Title", got)
	}

	textTag, ok := file2.TagByType(types.TagAIFFText).(*types.AIFFTextChunks)
	if !ok {
		t.Fatalf("expected AIFF text chunks to survive rewrite, tags: %#v", file2.Tags)
	}
	if got := textTag.Get(types.TrackTitle); got != "Title" {
		t.Errorf("expected AIFF NAME to survive as %q, got %q", "Title", got)
	}
}
