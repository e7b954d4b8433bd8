package flac

import (
	"bytes"
	"testing"

	"github.com/BSteffaniak/lofty-go/internal/types"
)

func TestWriteReplacesVorbisComment(t *testing.T) {
	data := buildMinimalFLAC("Old Title", "Old Artist", "Old Album")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.flac", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tag, ok := file.PrimaryTag().(*types.VorbisComments)
	if !ok {
		t.Fatalf("expected *types.VorbisComments, got %T", file.PrimaryTag())
	}
	tag.Set(types.TrackTitle, "New Title")

	var out bytes.Buffer
	if err := (writer{}).Write(&out, file, r, int64(len(data))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	written := out.Bytes()
	r2 := bytes.NewReader(written)
	reparsed, err := (&parser{}).Parse(r2, int64(len(written)), "test.flac", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}

	newTag := reparsed.PrimaryTag()
	if newTag == nil {
		t.Fatal("expected a tag after write, got nil")
	}
	if got := newTag.Get(types.TrackTitle); got != "New Title" {
		t.Errorf("title: got %q, want %q", got, "New Title")
	}
	if got := newTag.Get(types.TrackArtist); got != "Old Artist" {
		t.Errorf("artist should survive untouched: got %q", got)
	}

	if reparsed.Properties.SampleRate != 44100 {
		t.Errorf("STREAMINFO should survive untouched: sample rate got %d", reparsed.Properties.SampleRate)
	}
}

func TestWriteNoExistingTag(t *testing.T) {
	data := buildMinimalFLAC("", "", "")
	r := bytes.NewReader(data)

	file, err := (&parser{}).Parse(r, int64(len(data)), "test.flac", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tag := types.NewVorbisComments()
	tag.Set(types.TrackTitle, "Fresh Title")
	file.Tags = []types.Tag{tag}

	var out bytes.Buffer
	if err := (writer{}).Write(&out, file, r, int64(len(data))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	written := out.Bytes()
	r2 := bytes.NewReader(written)
	reparsed, err := (&parser{}).Parse(r2, int64(len(written)), "test.flac", types.DefaultParseOptions())
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if got := reparsed.PrimaryTag().Get(types.TrackTitle); got != "Fresh Title" {
		t.Errorf("title: got %q, want %q", got, "Fresh Title")
	}
}
