// Package session holds the state of one editing session: the selected
// filter, the source photo, the parameter values and the last render.
//
// A Session is driven from a single goroutine. Every mutation that can change
// the rendered image re-renders immediately, so Rendered always reflects the
// current filter, parameters and source.
package session

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/instafilter/pkg/filter"
)

// Filterer applies a filter to an image. A nil result means there is
// nothing to show for the request and is not an error.
type Filterer interface {
	Apply(kind filter.Kind, params filter.Params, src image.Image) image.Image
}

// Saver persists a rendered image.
type Saver interface {
	Save(ctx context.Context, img image.Image) error
}

// SaveStatus is the outcome of a Save call.
type SaveStatus int

const (
	// SaveSkipped means there was no rendered image to save.
	SaveSkipped SaveStatus = iota
	// SaveOK means the image was persisted.
	SaveOK
	// SaveFailed means persistence returned an error.
	SaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveSkipped:
		return "skipped"
	case SaveOK:
		return "saved"
	case SaveFailed:
		return "failed"
	}
	return "unknown"
}

// SaveResult reports what Save did. Err is set only when Status is SaveFailed.
type SaveResult struct {
	Status SaveStatus
	Err    error
}

// Session is the single owner of the editor's model state.
type Session struct {
	filterer Filterer
	saver    Saver
	log      logrus.FieldLogger

	kind     filter.Kind
	params   filter.ParameterSet
	source   image.Image
	rendered image.Image

	// generation increases on every render request; a result is kept only
	// if no newer request started while it was being computed.
	generation uint64
	renders    int

	lastSaveFailed bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for render and save events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFilter sets the initially selected filter.
func WithFilter(k filter.Kind) Option {
	return func(s *Session) { s.kind = k }
}

// WithParameters sets the initial parameter values. Values are clamped.
func WithParameters(p filter.ParameterSet) Option {
	return func(s *Session) {
		for _, r := range filter.Roles() {
			s.params = s.params.With(r, p.Get(r))
		}
	}
}

// New returns a session using sepia tone and the default parameters.
func New(f Filterer, sv Saver, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetLevel(logrus.PanicLevel)
	s := &Session{
		filterer: f,
		saver:    sv,
		log:      discard,
		kind:     filter.SepiaTone,
		params:   filter.DefaultParameters(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Filter returns the selected filter kind.
func (s *Session) Filter() filter.Kind { return s.kind }

// Parameters returns the stored parameter values for every role.
func (s *Session) Parameters() filter.ParameterSet { return s.params }

// Source returns the loaded photo, or nil.
func (s *Session) Source() image.Image { return s.source }

// Rendered returns the last rendered image, or nil.
func (s *Session) Rendered() image.Image { return s.rendered }

// HasImage reports whether a source photo is loaded.
func (s *Session) HasImage() bool { return s.source != nil }

// Renders returns how many times the filter capability has been invoked.
func (s *Session) Renders() int { return s.renders }

// LoadImage replaces the source photo and renders it. A nil image means the
// pick was cancelled: nothing changes.
func (s *Session) LoadImage(img image.Image) {
	if img == nil {
		s.log.Debug("load cancelled")
		return
	}
	s.source = img
	b := img.Bounds()
	s.log.WithFields(logrus.Fields{"width": b.Dx(), "height": b.Dy()}).Debug("image loaded")
	s.Render()
}

// SelectFilter switches the filter and renders. Parameter values are kept
// as they are, including those the new filter ignores.
func (s *Session) SelectFilter(k filter.Kind) {
	s.kind = k
	s.log.WithField("filter", k.String()).Debug("filter selected")
	s.Render()
}

// SetParameter clamps v to the role's range and stores it. The image is
// re-rendered only when the selected filter reads the role. The stored value
// is returned.
func (s *Session) SetParameter(r filter.Role, v float64) float64 {
	s.params = s.params.With(r, v)
	stored := s.params.Get(r)
	applies := s.kind.Accepts(r)
	s.log.WithFields(logrus.Fields{
		"role":    r.String(),
		"value":   stored,
		"applies": applies,
	}).Debug("parameter set")
	if applies {
		s.Render()
	}
	return stored
}

// Render applies the selected filter to the source. Without a source it does
// nothing. When the filter yields no image the previous render is kept.
func (s *Session) Render() {
	if s.source == nil {
		return
	}
	s.generation++
	gen := s.generation
	params := s.params.For(s.kind)
	s.renders++
	out := s.filterer.Apply(s.kind, params, s.source)
	if gen != s.generation {
		s.log.WithField("filter", s.kind.String()).Debug("discarding superseded render")
		return
	}
	if out == nil {
		s.log.WithFields(logrus.Fields{"filter": s.kind.String(), "params": params.String()}).Debug("filter produced no output")
		return
	}
	s.rendered = out
}

// Save persists the rendered image. Without a rendered image it does
// nothing. A failure sets the flag reported by LastSaveFailed; the flag stays
// set until ClearSaveFailure.
func (s *Session) Save(ctx context.Context) SaveResult {
	if s.rendered == nil {
		return SaveResult{Status: SaveSkipped}
	}
	if err := s.saver.Save(ctx, s.rendered); err != nil {
		s.lastSaveFailed = true
		s.log.WithError(err).Warn("save failed")
		return SaveResult{Status: SaveFailed, Err: err}
	}
	s.log.Info("image saved")
	return SaveResult{Status: SaveOK}
}

// LastSaveFailed reports whether a save has failed since the flag was last
// cleared.
func (s *Session) LastSaveFailed() bool { return s.lastSaveFailed }

// ClearSaveFailure resets the save failure flag after it has been shown.
func (s *Session) ClearSaveFailure() { s.lastSaveFailed = false }
