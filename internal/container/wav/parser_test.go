package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

func buildFmtChunk(channels uint16, sampleRate uint32, bitsPerSample uint16) []byte {
	body := make([]byte, 16)
	binary.LittleEndian.PutUint16(body[0:2], formatPCM)
	binary.LittleEndian.PutUint16(body[2:4], channels)
	binary.LittleEndian.PutUint32(body[4:8], sampleRate)
	byteRate := sampleRate * uint32(channels) * uint32(bitsPerSample) / 8
	binary.LittleEndian.PutUint32(body[8:12], byteRate)
	blockAlign := channels * bitsPerSample / 8
	binary.LittleEndian.PutUint16(body[12:14], blockAlign)
	binary.LittleEndian.PutUint16(body[14:16], bitsPerSample)
	return wrapChunk("fmt ", body)
}

func buildInfoList(title, artist string) []byte {
	var body []byte
	body = append(body, []byte("INFO")...)
	body = append(body, wrapChunk("INAM", append([]byte(title), 0))...)
	body = append(body, wrapChunk("IART", append([]byte(artist), 0))...)
	return wrapChunk("LIST", body)
}

func buildMinimalWAV(title, artist string) []byte {
	fmtChunk := buildFmtChunk(2, 44100, 16)
	dataChunk := wrapChunk("data", make([]byte, 44100*4))
	listChunk := buildInfoList(title, artist)

	var body []byte
	body = append(body, []byte("WAVE")...)
	body = append(body, fmtChunk...)
	body = append(body, listChunk...)
	body = append(body, dataChunk...)

	riffSize := uint32(len(body))
	header := make([]byte, 8)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)

	return append(header, body...)
}

func TestParseWAVSuccess(t *testing.T) {
	data := buildMinimalWAV("Test Title", "Test Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.wav", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.WAV {
		t.Errorf("expected FileType WAV, got %v", file.FileType)
	}
	if file.Properties.SampleRate != 44100 {
		t.Errorf("expected 44100Hz, got %d", file.Properties.SampleRate)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
	if file.Properties.BitDepth != 16 {
		t.Errorf("expected 16-bit depth, got %d", file.Properties.BitDepth)
	}
	if file.Properties.Duration <= 0 {
		t.Error("expected a positive duration")
	}

	if len(file.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(file.Tags))
	}
	tag, ok := file.Tags[0].(*types.RIFFInfoList)
	if !ok {
		t.Fatalf("expected *types.RIFFInfoList, got %T", file.Tags[0])
	}
	if got := tag.Get(types.TrackTitle); got != "Test Title" {
		t.Errorf("expected title %q, got %q", "Test Title", got)
	}
	if got := tag.Get(types.TrackArtist); got != "Test Artist" {
		t.Errorf("expected artist %q, got %q", "Test Artist", got)
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte("not a wave file.............")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.wav", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected an error for invalid RIFF magic")
	}
}

func TestWriteAppendsID3Chunk(t *testing.T) {
	data := buildMinimalWAV("Title", "Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.wav", types.DefaultParseOptions())
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
	file2, err := (&parser{}).Parse(bytes.NewReader(rewritten), int64(len(rewritten)), "test.wav", types.DefaultParseOptions())
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

	riffInfo, ok := file2.TagByType(types.TagRIFFInfo).(*types.RIFFInfoList)
	if !ok {
		t.Fatalf("expected RIFF INFO tag to survive rewrite, tags: %#v", file2.Tags)
	}
	if got := riffInfo.Get(types.TrackTitle); got != "Title" {
		t.Errorf("expected RIFF INFO title to survive as %q, got %q", "Title", got)
	}
}
