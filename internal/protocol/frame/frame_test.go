package frame

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	for _, payload := range []string{`{"id":2,"action":"get-selected"}`, `{"id":3}`} {
		if err := WriteFrame(&buf, []byte(payload), DefaultLimits()); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	r := NewReader(&buf, DefaultLimits())
	first, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(first) != `{"id":2,"action":"get-selected"}` {
		t.Fatalf("unexpected first frame: %q", first)
	}
	second, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(second) != `{"id":3}` {
		t.Fatalf("unexpected second frame: %q", second)
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadFrameSkipsBlankLinesAndCarriageReturns(t *testing.T) {
	r := NewReader(strings.NewReader("\n\r\n{\"id\":4}\r\n"), DefaultLimits())
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(got) != `{"id":4}` {
		t.Fatalf("unexpected frame: %q", got)
	}
}

func TestReadFrameReturnsUnterminatedTail(t *testing.T) {
	r := NewReader(strings.NewReader(`{"id":5}`), DefaultLimits())
	got, err := r.ReadFrame()
	if err != nil || string(got) != `{"id":5}` {
		t.Fatalf("unexpected tail: %q err=%v", got, err)
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadFrameTooLargeRecovers(t *testing.T) {
	limits := Limits{MaxFrameBytes: 8}
	r := NewReader(strings.NewReader(strings.Repeat("x", 64)+"\n{\"id\":6}\n"), limits)
	if _, err := r.ReadFrame(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read after oversized frame: %v", err)
	}
	if string(got) != `{"id":6}` {
		t.Fatalf("unexpected frame after recovery: %q", got)
	}
}

func TestWriteFrameRejectsEmbeddedNewline(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("a\nb"), DefaultLimits()); !errors.Is(err, ErrEmbeddedNewline) {
		t.Fatalf("expected ErrEmbeddedNewline, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}
