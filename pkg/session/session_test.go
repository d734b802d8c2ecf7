package session

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/Fepozopo/instafilter/pkg/filter"
)

type applyCall struct {
	kind   filter.Kind
	params filter.Params
	src    image.Image
}

// recordingFilterer records every Apply call and returns a fresh 1x1 image,
// or nil when empty is set.
type recordingFilterer struct {
	calls []applyCall
	empty bool
}

func (f *recordingFilterer) Apply(kind filter.Kind, params filter.Params, src image.Image) image.Image {
	f.calls = append(f.calls, applyCall{kind: kind, params: params, src: src})
	if f.empty {
		return nil
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1))
}

type recordingSaver struct {
	saved []image.Image
	err   error
}

func (s *recordingSaver) Save(_ context.Context, img image.Image) error {
	s.saved = append(s.saved, img)
	return s.err
}

func photo() image.Image { return image.NewNRGBA(image.Rect(0, 0, 4, 3)) }

func TestNewDefaults(t *testing.T) {
	s := New(&recordingFilterer{}, &recordingSaver{})
	if s.Filter() != filter.SepiaTone {
		t.Fatalf("default filter = %s", s.Filter())
	}
	if s.Parameters() != filter.DefaultParameters() {
		t.Fatalf("default parameters = %+v", s.Parameters())
	}
	if s.HasImage() || s.Rendered() != nil {
		t.Fatal("new session must start without an image")
	}
}

func TestLoadImageRenders(t *testing.T) {
	f := &recordingFilterer{}
	s := New(f, &recordingSaver{})
	src := photo()
	s.LoadImage(src)
	if len(f.calls) != 1 {
		t.Fatalf("expected 1 render, got %d", len(f.calls))
	}
	c := f.calls[0]
	if c.kind != filter.SepiaTone || c.src != src {
		t.Fatalf("unexpected call %+v", c)
	}
	if len(c.params) != 1 || c.params[filter.Intensity] != 0.5 {
		t.Fatalf("params = %v", c.params)
	}
	if s.Rendered() == nil || !s.HasImage() {
		t.Fatal("expected a rendered image")
	}
}

func TestLoadImageNilIsNoOp(t *testing.T) {
	f := &recordingFilterer{}
	s := New(f, &recordingSaver{})
	src := photo()
	s.LoadImage(src)
	before := s.Rendered()
	s.LoadImage(nil)
	if s.Source() != src || s.Rendered() != before || len(f.calls) != 1 {
		t.Fatal("cancelled load must not change the session")
	}
}

func TestIrrelevantParameterDoesNotRender(t *testing.T) {
	f := &recordingFilterer{}
	s := New(f, &recordingSaver{})
	s.LoadImage(photo())
	s.SelectFilter(filter.Vignette)
	s.SetParameter(filter.Intensity, 0.6)
	n := len(f.calls)
	if got := f.calls[n-1].params; len(got) != 1 || got[filter.Intensity] != 0.6 {
		t.Fatalf("vignette params = %v", got)
	}
	if v := s.SetParameter(filter.Scale, 8); v != 8 {
		t.Fatalf("stored scale = %v", v)
	}
	if len(f.calls) != n {
		t.Fatal("setting scale on vignette must not render")
	}
	if s.Parameters().Scale != 8 {
		t.Fatal("scale must still be stored")
	}
}

func TestValuesSurviveFilterSwitch(t *testing.T) {
	f := &recordingFilterer{}
	s := New(f, &recordingSaver{})
	s.LoadImage(photo())
	s.SelectFilter(filter.GaussianBlur)
	s.SetParameter(filter.Radius, 42)
	s.SelectFilter(filter.SepiaTone)
	s.SelectFilter(filter.GaussianBlur)
	last := f.calls[len(f.calls)-1]
	if last.kind != filter.GaussianBlur || last.params[filter.Radius] != 42 {
		t.Fatalf("radius lost across switch: %+v", last)
	}
	if _, ok := last.params[filter.Intensity]; ok {
		t.Fatal("blur must not receive intensity")
	}
}

func TestSetParameterClamps(t *testing.T) {
	s := New(&recordingFilterer{}, &recordingSaver{})
	if v := s.SetParameter(filter.Intensity, 3); v != 1 {
		t.Fatalf("intensity clamped to %v", v)
	}
	if v := s.SetParameter(filter.Radius, -5); v != 0 {
		t.Fatalf("radius clamped to %v", v)
	}
}

func TestNoSourceNoRender(t *testing.T) {
	f := &recordingFilterer{}
	s := New(f, &recordingSaver{})
	s.SelectFilter(filter.Crystallize)
	s.SetParameter(filter.Radius, 10)
	s.Render()
	if len(f.calls) != 0 {
		t.Fatalf("expected no renders without a source, got %d", len(f.calls))
	}
}

func TestNilFilterResultKeepsPrevious(t *testing.T) {
	f := &recordingFilterer{}
	s := New(f, &recordingSaver{})
	s.LoadImage(photo())
	prev := s.Rendered()
	f.empty = true
	s.SetParameter(filter.Intensity, 0.9)
	if s.Rendered() != prev {
		t.Fatal("nil filter result must keep the previous render")
	}
}

func TestSaveWithoutRenderIsSkipped(t *testing.T) {
	sv := &recordingSaver{}
	s := New(&recordingFilterer{}, sv)
	if r := s.Save(context.Background()); r.Status != SaveSkipped {
		t.Fatalf("status = %s", r.Status)
	}
	if len(sv.saved) != 0 || s.LastSaveFailed() {
		t.Fatal("skipped save must not reach the saver")
	}
}

func TestSaveSuccess(t *testing.T) {
	sv := &recordingSaver{}
	s := New(&recordingFilterer{}, sv)
	s.LoadImage(photo())
	if r := s.Save(context.Background()); r.Status != SaveOK || r.Err != nil {
		t.Fatalf("result = %+v", r)
	}
	if len(sv.saved) != 1 || sv.saved[0] != s.Rendered() {
		t.Fatal("saver must receive the rendered image")
	}
}

func TestSaveFailureFlag(t *testing.T) {
	boom := errors.New("denied")
	sv := &recordingSaver{err: boom}
	s := New(&recordingFilterer{}, sv)
	s.LoadImage(photo())
	r := s.Save(context.Background())
	if r.Status != SaveFailed || !errors.Is(r.Err, boom) {
		t.Fatalf("result = %+v", r)
	}
	if !s.LastSaveFailed() {
		t.Fatal("failure flag not set")
	}
	sv.err = nil
	s.Save(context.Background())
	if !s.LastSaveFailed() {
		t.Fatal("flag must stay set until cleared")
	}
	s.ClearSaveFailure()
	if s.LastSaveFailed() {
		t.Fatal("flag not cleared")
	}
}

func TestOptions(t *testing.T) {
	f := &recordingFilterer{}
	p := filter.DefaultParameters().With(filter.Radius, 300)
	s := New(f, &recordingSaver{}, WithFilter(filter.Pointillize), WithParameters(p), WithLogger(nil))
	s.LoadImage(photo())
	if got := f.calls[0]; got.kind != filter.Pointillize || got.params[filter.Radius] != 200 {
		t.Fatalf("call = %+v", got)
	}
}

func TestSaveStatusString(t *testing.T) {
	cases := map[SaveStatus]string{SaveSkipped: "skipped", SaveOK: "saved", SaveFailed: "failed", SaveStatus(9): "unknown"}
	for st, want := range cases {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}

// reentrantFilterer changes the intensity from inside its first Apply, the
// way an asynchronous slider event would land during a slow render.
type reentrantFilterer struct {
	sess    *Session
	results []image.Image
}

func (f *reentrantFilterer) Apply(kind filter.Kind, params filter.Params, src image.Image) image.Image {
	out := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	f.results = append(f.results, out)
	if len(f.results) == 1 {
		f.sess.SetParameter(filter.Intensity, 0.9)
	}
	return out
}

func TestStaleRenderIsDiscarded(t *testing.T) {
	f := &reentrantFilterer{}
	s := New(f, &recordingSaver{})
	f.sess = s
	s.LoadImage(photo())
	if s.Renders() != 2 || len(f.results) != 2 {
		t.Fatalf("renders = %d, want 2", s.Renders())
	}
	if s.Rendered() != f.results[1] {
		t.Fatal("the superseded result must not replace the newer render")
	}
}
