package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/Fepozopo/instafilter/pkg/filter"
	"github.com/Fepozopo/instafilter/pkg/session"
	"github.com/Fepozopo/instafilter/pkg/stdimg"
)

type fakeLibrary struct {
	saved int
	err   error
}

func (l *fakeLibrary) Save(_ context.Context, img image.Image) error {
	if l.err != nil {
		return l.err
	}
	l.saved++
	return nil
}

func (l *fakeLibrary) LastPath() string { return "/library/instafilter-test.jpg" }

type countingPreviewer struct{ shown int }

func (p *countingPreviewer) Show(image.Image, string) error {
	p.shown++
	return nil
}

// writePhoto stores a small gradient PNG and returns its path.
func writePhoto(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 30), B: 90, A: 255})
		}
	}
	p := filepath.Join(t.TempDir(), "photo.png")
	if err := imaging.Save(img, p); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return p
}

type editorHarness struct {
	sess    *session.Session
	lib     *fakeLibrary
	preview *countingPreviewer
	out     *bytes.Buffer
}

func runEditor(t *testing.T, lib *fakeLibrary, input string) editorHarness {
	t.Helper()
	h := editorHarness{
		sess:    session.New(stdimg.Engine{}, lib),
		lib:     lib,
		preview: &countingPreviewer{},
		out:     &bytes.Buffer{},
	}
	p := NewPrompter(strings.NewReader(input), h.out)
	e := NewEditor(h.sess, lib, p, h.out, WithPreviewer(h.preview), WithFzf(false))
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return h
}

func TestEditorOpenFilterSave(t *testing.T) {
	path := writePhoto(t)
	lib := &fakeLibrary{}
	h := runEditor(t, lib, strings.Join([]string{
		"o " + path,
		"f vignette",
		"i 0.6",
		"x 8",
		"s",
		"q",
	}, "\n")+"\n")

	out := h.out.String()
	if h.sess.Filter() != filter.Vignette {
		t.Fatalf("filter = %s", h.sess.Filter())
	}
	if got := h.sess.Parameters(); got.Intensity != 0.6 || got.Scale != 8 {
		t.Fatalf("parameters = %+v", got)
	}
	if !strings.Contains(out, "Vignette does not use scale") {
		t.Fatalf("missing inapplicable role note:\n%s", out)
	}
	// open, filter change and intensity each preview; scale does not
	if h.preview.shown != 3 {
		t.Fatalf("previews = %d, want 3", h.preview.shown)
	}
	if lib.saved != 1 || !strings.Contains(out, "Saved to /library/instafilter-test.jpg") {
		t.Fatalf("save not confirmed (saved=%d):\n%s", lib.saved, out)
	}
	if !strings.Contains(out, "Exiting...") {
		t.Fatal("q must exit")
	}
}

func TestEditorSaveFailureAlertsOncePerAttempt(t *testing.T) {
	path := writePhoto(t)
	lib := &fakeLibrary{err: errors.New("permission denied")}
	h := runEditor(t, lib, "o "+path+"\ns\ns\n")
	out := h.out.String()
	if n := strings.Count(out, "Could not save the photo: permission denied"); n != 2 {
		t.Fatalf("alerts = %d, want 2:\n%s", n, out)
	}
	if h.sess.LastSaveFailed() {
		t.Fatal("flag must be cleared after the alert")
	}
	if h.sess.Rendered() == nil {
		t.Fatal("failed save must keep the render")
	}
}

func TestEditorWithoutImage(t *testing.T) {
	lib := &fakeLibrary{}
	h := runEditor(t, lib, "p\ni 0.3\ns\n")
	out := h.out.String()
	if strings.Count(out, noImageHint) < 3 {
		t.Fatalf("expected hints for p, i and s:\n%s", out)
	}
	if h.sess.Parameters().Intensity != 0.3 {
		t.Fatal("value must be stored without an image")
	}
	if lib.saved != 0 || h.preview.shown != 0 {
		t.Fatal("nothing may be saved or shown without an image")
	}
}

func TestEditorFallbackFilterList(t *testing.T) {
	h := runEditor(t, &fakeLibrary{}, "f\n3\nf\n\nf\nzzz\nq\n")
	if h.sess.Filter() != filter.GaussianBlur {
		t.Fatalf("filter = %s, want Gaussian Blur", h.sess.Filter())
	}
	out := h.out.String()
	if !strings.Contains(out, "selection cancelled") || !strings.Contains(out, "unknown filter") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEditorPromptsForValues(t *testing.T) {
	h := runEditor(t, &fakeLibrary{}, "r\n50%\nx\n\ni 7\n")
	p := h.sess.Parameters()
	if p.Radius != 100 {
		t.Fatalf("radius = %v, want 100", p.Radius)
	}
	if p.Scale != filter.Scale.Default() {
		t.Fatalf("empty answer must leave scale unchanged, got %v", p.Scale)
	}
	if p.Intensity != 1 {
		t.Fatalf("intensity = %v, want clamped 1", p.Intensity)
	}
}

func TestEditorOpenFailureKeepsSession(t *testing.T) {
	path := writePhoto(t)
	h := runEditor(t, &fakeLibrary{}, "o "+path+"\no "+filepath.Join(t.TempDir(), "missing.png")+"\no\n\n")
	out := h.out.String()
	if !strings.Contains(out, "could not read photo") || !strings.Contains(out, "open cancelled") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !h.sess.HasImage() {
		t.Fatal("a failed open must keep the previous photo")
	}
}
