package cli

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"strings"
	"testing"
)

// inlineTerminal makes detection pick the inline protocol.
func inlineTerminal(t *testing.T) {
	t.Helper()
	t.Setenv("TERM_PROGRAM", "WezTerm")
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("KITTY_WINDOW_ID", "")
	t.Setenv("KONSOLE_VERSION", "")
}

func inlinePayload(t *testing.T, out string) []byte {
	t.Helper()
	idx := strings.Index(out, ":")
	if idx < 0 {
		t.Fatalf("no ':' found in output: %q", out)
	}
	payload := out[idx+1:]
	if bi := strings.Index(payload, "\a"); bi >= 0 {
		payload = payload[:bi]
	}
	dec, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	return dec
}

// TestPreviewInlineSequence verifies that Show emits an inline-image OSC
// sequence when TERM_PROGRAM indicates an inline-capable terminal.
func TestPreviewInlineSequence(t *testing.T) {
	inlineTerminal(t)
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 1, color.RGBA{255, 255, 0, 255})

	var buf bytes.Buffer
	p := &Previewer{Out: &buf}
	if err := p.Show(img, "png"); err != nil {
		t.Fatalf("Show error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b]1337;File=name=preview.png") {
		t.Fatalf("expected inline 1337 sequence in output, got: %q", out)
	}
	if dec := inlinePayload(t, out); !bytes.HasPrefix(dec, []byte("\x89PNG")) {
		t.Fatalf("expected PNG payload, got %x", dec[:4])
	}
}

// TestPreviewEncodesJPEG ensures a jpg hint produces a JPEG payload.
func TestPreviewEncodesJPEG(t *testing.T) {
	inlineTerminal(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{10, 20, 30, 255})

	var buf bytes.Buffer
	p := &Previewer{Out: &buf, Backend: "inline"}
	if err := p.Show(img, "jpg"); err != nil {
		t.Fatalf("Show error: %v", err)
	}
	dec := inlinePayload(t, buf.String())
	if len(dec) < 2 || dec[0] != 0xFF || dec[1] != 0xD8 {
		t.Fatalf("expected JPEG SOI bytes, got: %x", dec[:4])
	}
}

func TestPreviewKittyChunks(t *testing.T) {
	var buf bytes.Buffer
	p := &Previewer{Out: &buf}
	data := bytes.Repeat([]byte{7}, 5000) // > 4096 base64 bytes
	if err := p.sendKittyImage(data, "png", PreviewSize{Cols: 10, Rows: 5}); err != nil {
		t.Fatalf("sendKittyImage: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,t=d,q=2,c=10,r=5,m=1;") {
		t.Fatalf("unexpected first chunk header: %q", out[:40])
	}
	if !strings.Contains(out, "\x1b_Gm=0;") {
		t.Fatal("missing final chunk")
	}
}

func TestPreviewDisabled(t *testing.T) {
	var buf bytes.Buffer
	p := &Previewer{Out: &buf, Backend: "none"}
	if p.Supported() {
		t.Fatal("none backend must not be supported")
	}
	if err := p.Show(image.NewRGBA(image.Rect(0, 0, 3, 3)), "png"); err != nil || buf.Len() != 0 {
		t.Fatalf("expected silent no-op, err=%v out=%q", err, buf.String())
	}
}

func TestDownscaleFitsPreviewArea(t *testing.T) {
	big := image.NewNRGBA(image.Rect(0, 0, 1280, 640))
	small := downscale(big)
	b := small.Bounds()
	if b.Dx() != 640 || b.Dy() != 320 {
		t.Fatalf("downscaled to %v, want 640x320", b)
	}
	tiny := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	if downscale(tiny) != image.Image(tiny) {
		t.Fatal("images that fit must not be resampled")
	}
}

func TestComputePreviewSizeClamps(t *testing.T) {
	s := computePreviewSize(image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	if s.Cols != minCols || s.Rows != minRows {
		t.Fatalf("tiny image size = %+v", s)
	}
	s = computePreviewSize(image.NewNRGBA(image.Rect(0, 0, 4000, 4000)))
	if s.Cols > maxCols || s.Rows != maxRows {
		t.Fatalf("huge image size = %+v", s)
	}
}
