package ape

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/apev2"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

func buildAPEDescriptorAndHeader(channels, bitsPerSample uint16, sampleRate, blocksPerFrame, finalFrameBlocks, totalFrames uint32) []byte {
	descriptor := make([]byte, 52)
	copy(descriptor[0:4], "MAC ")
	binary.LittleEndian.PutUint16(descriptor[4:6], 3980)
	// descriptor[6:8] is the padding field
	binary.LittleEndian.PutUint32(descriptor[8:12], 52) // descriptor bytes (includes the magic/version/padding prefix)
	binary.LittleEndian.PutUint32(descriptor[12:16], 24) // header bytes

	header := make([]byte, 24)
	binary.LittleEndian.PutUint16(header[0:2], 2000) // compression level
	binary.LittleEndian.PutUint32(header[4:8], blocksPerFrame)
	binary.LittleEndian.PutUint32(header[8:12], finalFrameBlocks)
	binary.LittleEndian.PutUint32(header[12:16], totalFrames)
	binary.LittleEndian.PutUint16(header[16:18], bitsPerSample)
	binary.LittleEndian.PutUint16(header[18:20], channels)
	binary.LittleEndian.PutUint32(header[20:24], sampleRate)

	return append(descriptor, header...)
}

func buildMinimalAPE(title, artist string) []byte {
	props := buildAPEDescriptorAndHeader(2, 16, 44100, 9216, 1000, 100)

	tag := types.NewApeTag()
	tag.Set(types.TrackTitle, title)
	tag.Set(types.TrackArtist, artist)

	var buf bytes.Buffer
	buf.Write(props)
	buf.Write(apev2.Build(tag))
	return buf.Bytes()
}

func TestParseAPESuccess(t *testing.T) {
	data := buildMinimalAPE("Test Title", "Test Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.ape", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.APE {
		t.Errorf("expected FileType APE, got %v", file.FileType)
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
	tag, ok := file.Tags[0].(*types.ApeTag)
	if !ok {
		t.Fatalf("expected *types.ApeTag, got %T", file.Tags[0])
	}
	if got := tag.Get(types.TrackTitle); got != "Test Title" {
		t.Errorf("expected title %q, got %q", "Test Title", got)
	}
	if got := tag.Get(types.TrackArtist); got != "Test Artist" {
		t.Errorf("expected artist %q, got %q", "Test Artist", got)
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte("not an ape file at all......")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.ape", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected an error for invalid MAC magic")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	data := buildMinimalAPE("Old Title", "Old Artist")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.ape", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tag := file.Tags[0].(*types.ApeTag)
	tag.Set(types.TrackTitle, "New Title")

	var out bytes.Buffer
	if err := (&writer{}).Write(&out, file, r, int64(len(data))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rewritten := out.Bytes()
	file2, err := (&parser{}).Parse(bytes.NewReader(rewritten), int64(len(rewritten)), "test.ape", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("re-Parse after write failed: %v", err)
	}
	tag2 := file2.Tags[0].(*types.ApeTag)
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
