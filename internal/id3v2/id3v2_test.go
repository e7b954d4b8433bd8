package id3v2

import (
	"bytes"
	"testing"

	binutil "github.com/BSteffaniak/lofty-go/internal/binary"
	"github.com/BSteffaniak/lofty-go/internal/types"
)

// buildV23Tag assembles a minimal ID3v2.3 tag (10-byte header, no
// extended header, no footer) from pre-built frame byte slices.
func buildV23Tag(frames ...[]byte) []byte {
	var body []byte
	for _, f := range frames {
		body = append(body, f...)
	}

	var size [4]byte
	sz := uint32(len(body))
	size[0] = byte((sz >> 21) & 0x7F)
	size[1] = byte((sz >> 14) & 0x7F)
	size[2] = byte((sz >> 7) & 0x7F)
	size[3] = byte(sz & 0x7F)

	header := []byte{'I', 'D', '3', 3, 0, 0, size[0], size[1], size[2], size[3]}
	return append(header, body...)
}

// textFrame builds a v2.3 text frame: 4-char id, plain (non-synchsafe)
// big-endian size, 2 flag bytes, then [encoding=0][ISO-8859-1 text].
func textFrame(id, value string) []byte {
	body := append([]byte{0}, []byte(value)...)
	return frameWithBody(id, body)
}

func frameWithBody(id string, body []byte) []byte {
	var size [4]byte
	n := uint32(len(body))
	size[0] = byte(n >> 24)
	size[1] = byte(n >> 16)
	size[2] = byte(n >> 8)
	size[3] = byte(n)
	f := []byte(id)
	f = append(f, size[:]...)
	f = append(f, 0, 0) // flags
	f = append(f, body...)
	return f
}

func TestReadBasicTextFrames(t *testing.T) {
	data := buildV23Tag(
		textFrame("TIT2", "Test Title"),
		textFrame("TPE1", "Test Artist"),
		textFrame("TALB", "Test Album"),
	)

	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
	result, err := Read(sr, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got := result.Tag.Get(types.TrackTitle); got != "Test Title" {
		t.Errorf("title: got %q", got)
	}
	if got := result.Tag.Get(types.TrackArtist); got != "Test Artist" {
		t.Errorf("artist: got %q", got)
	}
	if got := result.Tag.Get(types.AlbumTitle); got != "Test Album" {
		t.Errorf("album: got %q", got)
	}
	if result.TagLen != int64(len(data)) {
		t.Errorf("TagLen: got %d, want %d", result.TagLen, len(data))
	}
}

func TestReadTXXXAudiobookFields(t *testing.T) {
	txxx := func(desc, value string) []byte {
		body := append([]byte{0}, []byte(desc)...)
		body = append(body, 0)
		body = append(body, []byte(value)...)
		return frameWithBody("TXXX", body)
	}

	data := buildV23Tag(
		txxx("Narrator", "Jane Doe"),
		txxx("Series", "The Chronicles"),
		txxx("ISBN", "978-0-000000-0-0"),
	)

	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
	result, err := Read(sr, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got := result.Tag.Get(types.Narrator); got != "Jane Doe" {
		t.Errorf("narrator: got %q", got)
	}
	if got := result.Tag.Get(types.Series); got != "The Chronicles" {
		t.Errorf("series: got %q", got)
	}
	if got := result.Tag.Get(types.ISBN); got != "978-0-000000-0-0" {
		t.Errorf("isbn: got %q", got)
	}
}

func TestReadAPICPicture(t *testing.T) {
	body := []byte{0} // encoding
	body = append(body, []byte("image/jpeg")...)
	body = append(body, 0)    // MIME terminator
	body = append(body, 0x03) // front cover
	body = append(body, 0)    // empty description
	body = append(body, 0xFF, 0xD8, 0xFF, 0xE0)

	data := buildV23Tag(frameWithBody("APIC", body))

	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
	result, err := Read(sr, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	pics := result.Tag.Pictures()
	if len(pics) != 1 {
		t.Fatalf("expected 1 picture, got %d", len(pics))
	}
	if pics[0].MIMEType != "image/jpeg" {
		t.Errorf("mime: got %q", pics[0].MIMEType)
	}
	if pics[0].PicType != types.PictureFrontCover {
		t.Errorf("pic type: got %v", pics[0].PicType)
	}
	if !bytes.Equal(pics[0].Data, []byte{0xFF, 0xD8, 0xFF, 0xE0}) {
		t.Errorf("picture data mismatch: %v", pics[0].Data)
	}
}

func TestReadEncryptedFrameLeftOpaque(t *testing.T) {
	// v2.4 with the encryption flag set; the reader must not attempt to
	// decrypt, only strip the method byte.
	body := []byte{0x00}                 // encryption method
	body = append(body, 0xDE, 0xAD, 0xBE, 0xEF)

	frame := []byte("SMTH")
	var size [4]byte
	n := uint32(len(body))
	size[0] = byte((n >> 21) & 0x7F)
	size[1] = byte((n >> 14) & 0x7F)
	size[2] = byte((n >> 7) & 0x7F)
	size[3] = byte(n & 0x7F)
	frame = append(frame, size[:]...)
	frame = append(frame, 0x00, 0x04) // encrypted flag
	frame = append(frame, body...)

	header := []byte{'I', 'D', '3', 4, 0, 0}
	var tagSize [4]byte
	tn := uint32(len(frame))
	tagSize[0] = byte((tn >> 21) & 0x7F)
	tagSize[1] = byte((tn >> 14) & 0x7F)
	tagSize[2] = byte((tn >> 7) & 0x7F)
	tagSize[3] = byte(tn & 0x7F)
	header = append(header, tagSize[:]...)
	data := append(header, frame...)

	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
	result, err := Read(sr, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := result.Tag.Get(types.Unknown("SMTH")); got != "\xDE\xAD\xBE\xEF" {
		t.Errorf("expected raw opaque bytes, got %q", got)
	}
}

func TestHasTag(t *testing.T) {
	data := buildV23Tag(textFrame("TIT2", "x"))
	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
	if !HasTag(sr) {
		t.Error("expected HasTag to be true")
	}

	noTag := binutil.NewSafeReader(bytes.NewReader([]byte("not an id3 tag")), 14, "test.mp3")
	if HasTag(noTag) {
		t.Error("expected HasTag to be false")
	}
}

func TestReadAndWriteRoundTrip(t *testing.T) {
	tag := types.NewId3v2Tag()
	tag.Set(types.TrackTitle, "Round Trip")
	tag.Set(types.TrackArtist, "Tester")
	tag.Set(types.Narrator, "Narrator Name")

	b := BuildFromTag(tag)
	out, err := b.Bytes(WriteOptions{})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	sr := binutil.NewSafeReader(bytes.NewReader(out), int64(len(out)), "test.mp3")
	result, err := Read(sr, 0)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}

	if got := result.Tag.Get(types.TrackTitle); got != "Round Trip" {
		t.Errorf("title: got %q", got)
	}
	if got := result.Tag.Get(types.TrackArtist); got != "Tester" {
		t.Errorf("artist: got %q", got)
	}
	if got := result.Tag.Get(types.Narrator); got != "Narrator Name" {
		t.Errorf("narrator: got %q", got)
	}
}

func TestBuilderEmptyProducesNoBytes(t *testing.T) {
	b := NewBuilder()
	if !b.Empty() {
		t.Fatal("expected a fresh Builder to be Empty")
	}
	out, err := b.Bytes(WriteOptions{})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil output for an empty tag, got %d bytes", len(out))
	}
}

func TestWriteFooter(t *testing.T) {
	tag := types.NewId3v2Tag()
	tag.Set(types.TrackTitle, "Footer Test")

	b := BuildFromTag(tag)
	out, err := b.Bytes(WriteOptions{Footer: true})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if len(out) < HeaderLen*2 {
		t.Fatalf("expected header+footer, got %d bytes", len(out))
	}
	if string(out[len(out)-HeaderLen:len(out)-HeaderLen+3]) != "3DI" {
		t.Errorf("footer identifier mismatch: %q", out[len(out)-HeaderLen:len(out)-HeaderLen+3])
	}
}
