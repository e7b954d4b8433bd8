package ogg

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

func vorbisCommentBytes(vendor string, comments []string) []byte {
	var buf []byte
	buf = append(buf, 0x03)
	buf = append(buf, "vorbis"...)

	write32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	write32(uint32(len(vendor)))
	buf = append(buf, vendor...)
	write32(uint32(len(comments)))
	for _, c := range comments {
		write32(uint32(len(c)))
		buf = append(buf, c...)
	}
	return buf
}

func buildMinimalVorbisOgg(title, artist string) []byte {
	ident := make([]byte, 30)
	ident[0] = 0x01
	copy(ident[1:7], "vorbis")
	// vorbisVersion = 0 at [7:11]
	ident[11] = 2 // channels
	binary.LittleEndian.PutUint32(ident[12:16], 44100)
	binary.LittleEndian.PutUint32(ident[20:24], 128000) // nominal bitrate
	ident[29] = 1                                       // framing bit

	comment := vorbisCommentBytes("lofty-go test", []string{"TITLE=" + title, "ARTIST=" + artist})
	setup := append([]byte{0x05}, "vorbis"...)
	setup = append(setup, 0xFF) // dummy codebook payload

	audio := []byte{0xAA, 0xBB, 0xCC}

	var buf bytes.Buffer
	buf.Write(buildPage(0x02, 0, 1, 0, []byte{byte(len(ident))}, ident))
	buf.Write(buildPage(0, 0, 1, 1, []byte{byte(len(comment)), byte(len(setup))}, append(append([]byte{}, comment...), setup...)))
	buf.Write(buildPage(0x04, 44100*2, 1, 2, []byte{byte(len(audio))}, audio))

	return buf.Bytes()
}

func buildMinimalOpusOgg(title, artist string) []byte {
	head := make([]byte, 19)
	copy(head[0:8], "OpusHead")
	head[8] = 1 // version
	head[9] = 2 // channels
	binary.LittleEndian.PutUint32(head[12:16], 48000)

	var tags []byte
	tags = append(tags, "OpusTags"...)
	write32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		tags = append(tags, b[:]...)
	}
	vendor := "lofty-go test"
	write32(uint32(len(vendor)))
	tags = append(tags, vendor...)
	comments := []string{"TITLE=" + title, "ARTIST=" + artist}
	write32(uint32(len(comments)))
	for _, c := range comments {
		write32(uint32(len(c)))
		tags = append(tags, c...)
	}

	audio := []byte{0x01, 0x02, 0x03}

	var buf bytes.Buffer
	buf.Write(buildPage(0x02, 0, 2, 0, []byte{byte(len(head))}, head))
	buf.Write(buildPage(0, 0, 2, 1, []byte{byte(len(tags))}, tags))
	buf.Write(buildPage(0x04, 48000, 2, 2, []byte{byte(len(audio))}, audio))

	return buf.Bytes()
}

func TestParseVorbisSuccess(t *testing.T) {
	data := buildMinimalVorbisOgg("Test Title", "Test Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.ogg", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.Vorbis {
		t.Errorf("expected FileType Vorbis, got %v", file.FileType)
	}
	if file.Properties.SampleRate != 44100 {
		t.Errorf("expected 44100Hz, got %d", file.Properties.SampleRate)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
	if file.Properties.Duration <= 0 {
		t.Error("expected a positive duration")
	}

	if len(file.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(file.Tags))
	}
	comments, ok := file.Tags[0].(*types.VorbisComments)
	if !ok {
		t.Fatalf("expected *types.VorbisComments, got %T", file.Tags[0])
	}
	if got := comments.GetAll(types.TrackTitle); len(got) != 1 || got[0] != "Test Title" {
		t.Errorf("expected title %q, got %v", "Test Title", got)
	}
	if got := comments.GetAll(types.TrackArtist); len(got) != 1 || got[0] != "Test Artist" {
		t.Errorf("expected artist %q, got %v", "Test Artist", got)
	}
}

func TestParseOpusSuccess(t *testing.T) {
	data := buildMinimalOpusOgg("Opus Title", "Opus Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.opus", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.Opus {
		t.Errorf("expected FileType Opus, got %v", file.FileType)
	}
	if file.Properties.SampleRate != 48000 {
		t.Errorf("expected 48000Hz (Opus always decodes at 48kHz), got %d", file.Properties.SampleRate)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte("not an ogg file at all")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.ogg", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected an error for invalid magic")
	}
}

func TestIdentifyCodec(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"vorbis", append([]byte{0x01}, "vorbis"...), codecVorbis},
		{"opus", []byte("OpusHead"), codecOpus},
		{"speex", []byte("Speex  "), codecSpeex},
		{"unknown", []byte("garbage"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := identifyCodec(tc.data); got != tc.want {
				t.Errorf("identifyCodec(%q) = %q, want %q", tc.data, got, tc.want)
			}
		})
	}
}
