package mpeg

import (
	"bytes"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

// buildMinimalMPEG assembles an ID3v2.3 tag with a TIT2 frame followed
// by a single MPEG1 Layer III 128kbps/44.1kHz frame header, mirroring
// the teacher's createMinimalMP3WithID3 helper.
func buildMinimalMPEG() []byte {
	data := make([]byte, 0, 64)

	data = append(data, []byte{
		'I', 'D', '3',
		0x03, 0x00,
		0x00,
		0x00, 0x00, 0x00, 0x10, // synchsafe size = 16
	}...)

	data = append(data, []byte{
		'T', 'I', 'T', '2',
		0x00, 0x00, 0x00, 0x0B,
		0x00, 0x00,
		0x00,
		'T', 'e', 's', 't', ' ', 'T', 'i', 't', 'l', 'e',
	}...)

	for len(data) < 26 {
		data = append(data, 0)
	}

	data = append(data, []byte{
		0xFF, 0xFB, // sync + MPEG1 + Layer III
		0x90, 0x00, // 128kbps, 44.1kHz, stereo, no padding
		0x00, 0x00, 0x00, 0x00,
	}...)

	return data
}

func TestParseValidMPEG(t *testing.T) {
	data := buildMinimalMPEG()
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.mp3", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.FileType != types.MPEG {
		t.Errorf("expected FileType MPEG, got %v", file.FileType)
	}

	tag := file.TagByType(types.TagID3v2)
	if tag == nil {
		t.Fatal("expected an ID3v2 tag")
	}
	if got := tag.Get(types.TrackTitle); got != "Test Title" {
		t.Errorf("title: got %q", got)
	}

	if file.Properties.Codec != "MP3" {
		t.Errorf("expected codec MP3, got %q", file.Properties.Codec)
	}
	if file.Properties.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", file.Properties.SampleRate)
	}
	if file.Properties.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", file.Properties.Channels)
	}
}

func TestDecodeHeaderRejectsBadSync(t *testing.T) {
	if _, ok := decodeHeader(0x00000000); ok {
		t.Error("expected decodeHeader to reject a non-sync word")
	}
}

func TestDecodeHeaderMPEG1LayerIII128kbps(t *testing.T) {
	// 0xFFFB9000: sync=11 bits, MPEG1, Layer III, bitrate idx 9 (128k), 44.1kHz, no padding.
	h, ok := decodeHeader(0xFFFB9000)
	if !ok {
		t.Fatal("expected a valid header")
	}
	if h.bitrateKbps != 128 {
		t.Errorf("expected 128kbps, got %d", h.bitrateKbps)
	}
	if h.sampleRate != 44100 {
		t.Errorf("expected 44100Hz, got %d", h.sampleRate)
	}
	if h.channels != 2 {
		t.Errorf("expected stereo, got %d channels", h.channels)
	}
}
