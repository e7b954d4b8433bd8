package wavpack

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/apev2"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

func buildWVBlockHeader(totalSamples uint32, flags uint32) []byte {
	buf := make([]byte, 32)
	copy(buf[0:4], "wvpk")
	binary.LittleEndian.PutUint32(buf[4:8], 24) // ckSize
	binary.LittleEndian.PutUint16(buf[8:10], 0x0410)
	binary.LittleEndian.PutUint32(buf[12:16], totalSamples)
	binary.LittleEndian.PutUint32(buf[24:28], flags)
	return buf
}

func buildMinimalWavPack(title string) []byte {
	// sample rate index 9 = 44100, stereo (flagMono unset), 2 bytes/sample.
	flags := uint32(9<<flagSampleRateLSB) | 0x1
	header := buildWVBlockHeader(44100, flags)

	tag := types.NewApeTag()
	tag.Set(types.TrackTitle, title)

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(make([]byte, 100)) // stand-in audio payload
	buf.Write(apev2.Build(tag))
	return buf.Bytes()
}

func TestParseWavPackSuccess(t *testing.T) {
	data := buildMinimalWavPack("Test Title")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.wv", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.FileType != types.WavPack {
		t.Errorf("expected FileType WavPack, got %v", file.FileType)
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
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte("not a wavpack file..........")
	r := bytes.NewReader(data)

	_, err := (&parser{}).Parse(r, int64(len(data)), "test.wv", types.DefaultParseOptions())
	if err == nil {
		t.Fatal("expected an error for invalid wvpk magic")
	}
}
