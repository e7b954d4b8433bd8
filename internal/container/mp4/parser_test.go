package mp4

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

// buildMdhd builds a version-0 mdhd atom with the given timescale and
// duration (in timescale units); language/quality are left zeroed since
// nothing in this package reads them.
func buildMdhd(timescale, duration uint32) []byte {
	body := make([]byte, 20)
	binary.BigEndian.PutUint32(body[12:16], timescale)
	binary.BigEndian.PutUint32(body[16:20], duration)
	return wrapAtom("mdhd", body)
}

// buildStsd builds a one-entry "mp4a" sample description with the given
// channel count and sample rate.
func buildStsd(channels uint16, sampleRate uint32) []byte {
	entry := make([]byte, 32)
	copy(entry[0:4], "mp4a")
	binary.BigEndian.PutUint16(entry[20:22], channels)
	binary.BigEndian.PutUint16(entry[22:24], 16) // sample size
	binary.BigEndian.PutUint32(entry[28:32], sampleRate<<16)

	entrySize := make([]byte, 4)
	binary.BigEndian.PutUint32(entrySize, uint32(4+len(entry)))
	fullEntry := append(entrySize, entry...)

	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[4:8], 1) // one sample description entry
	body = append(body, fullEntry...)

	return wrapAtom("stsd", body)
}

func buildStco(offsets ...uint32) []byte {
	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[4:8], uint32(len(offsets)))
	for _, o := range offsets {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], o)
		body = append(body, b[:]...)
	}
	return wrapAtom("stco", body)
}

func buildMinimalM4A(title, artist string) []byte {
	mdhd := buildMdhd(44100, 44100*2)
	stsd := buildStsd(2, 44100)
	stco := buildStco(0)
	stbl := wrapAtom("stbl", append(append([]byte{}, stsd...), stco...))
	minf := wrapAtom("minf", stbl)
	mdia := wrapAtom("mdia", append(append([]byte{}, mdhd...), minf...))
	trak := wrapAtom("trak", mdia)

	ilstBody := append(buildTextAtom("\xA9nam", title), buildTextAtom("\xA9ART", artist)...)
	ilst := wrapAtom("ilst", ilstBody)
	metaBody := append([]byte{0, 0, 0, 0}, ilst...)
	meta := wrapAtom("meta", metaBody)
	udta := wrapAtom("udta", meta)

	moovBody := append(append([]byte{}, trak...), udta...)
	moov := wrapAtom("moov", moovBody)

	ftyp := wrapAtom("ftyp", []byte("M4A \x00\x00\x02\x00M4A mp42isom"))
	mdat := wrapAtom("mdat", []byte{0xDE, 0xAD, 0xBE, 0xEF})

	var buf bytes.Buffer
	buf.Write(ftyp)
	buf.Write(moov)
	buf.Write(mdat)
	return buf.Bytes()
}

func TestParseM4ASuccess(t *testing.T) {
	data := buildMinimalM4A("Test Title", "Test Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.m4a", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.MP4 {
		t.Errorf("expected FileType MP4, got %v", file.FileType)
	}
	if file.Properties.SampleRate != 44100 {
		t.Errorf("expected 44100Hz, got %d", file.Properties.SampleRate)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
	if file.Properties.Codec != "mp4a" {
		t.Errorf("expected codec mp4a, got %q", file.Properties.Codec)
	}
	if file.Properties.Duration <= 0 {
		t.Error("expected a positive duration")
	}

	if len(file.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(file.Tags))
	}
	tag, ok := file.Tags[0].(*types.Mp4Ilst)
	if !ok {
		t.Fatalf("expected *types.Mp4Ilst, got %T", file.Tags[0])
	}
	if got := tag.Get(types.TrackTitle); got != "Test Title" {
		t.Errorf("expected title %q, got %q", "Test Title", got)
	}
	if got := tag.Get(types.TrackArtist); got != "Test Artist" {
		t.Errorf("expected artist %q, got %q", "Test Artist", got)
	}
}

func TestParseMissingMoov(t *testing.T) {
	data := []byte("not an mp4 file at all......")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.m4a", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected an error when no moov atom is present")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	data := buildMinimalM4A("Old Title", "Old Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.m4a", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tag := file.Tags[0].(*types.Mp4Ilst)
	tag.Set(types.TrackTitle, "New Title")

	var out bytes.Buffer
	if err := (&writer{}).Write(&out, file, r, int64(len(data))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rewritten := out.Bytes()
	file2, err := (&parser{}).Parse(bytes.NewReader(rewritten), int64(len(rewritten)), "test.m4a", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("re-Parse after write failed: %v", err)
	}
	tag2 := file2.Tags[0].(*types.Mp4Ilst)
	if got := tag2.Get(types.TrackTitle); got != "New Title" {
		t.Errorf("expected rewritten title %q, got %q", "New Title", got)
	}
	if got := tag2.Get(types.TrackArtist); got != "Old Artist" {
		t.Errorf("expected artist to survive rewrite as %q, got %q", "Old Artist", got)
	}
	if file2.Properties.SampleRate != 44100 {
		t.Errorf("expected properties to survive rewrite, got sample rate %d", file2.Properties.SampleRate)
	}
}
