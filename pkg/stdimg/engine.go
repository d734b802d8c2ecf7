// Package stdimg implements the built-in filters in pure Go on *image.NRGBA.
package stdimg

import (
	"image"

	"github.com/Fepozopo/instafilter/pkg/filter"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Engine applies a filter kind with its role values to an image.
// The zero value is ready to use.
type Engine struct{}

// Apply renders src through kind using params. It returns nil when there is
// nothing to render: a nil or empty source, or an unknown kind. Roles missing
// from params use their default values; extra roles are ignored.
func (Engine) Apply(kind filter.Kind, params filter.Params, src image.Image) image.Image {
	if src == nil || src.Bounds().Empty() {
		return nil
	}
	img := ToNRGBA(src)
	switch kind {
	case filter.Crystallize:
		return Crystallize(img, params.Or(filter.Radius))
	case filter.Edges:
		return Edges(img, params.Or(filter.Intensity))
	case filter.GaussianBlur:
		return SeparableGaussianBlur(img, params.Or(filter.Radius))
	case filter.Pixellate:
		return Pixellate(img, params.Or(filter.Scale))
	case filter.SepiaTone:
		return SepiaTone(img, params.Or(filter.Intensity))
	case filter.UnsharpMask:
		return UnsharpMask(img, params.Or(filter.Radius), params.Or(filter.Intensity))
	case filter.Vignette:
		return Vignette(img, params.Or(filter.Intensity))
	case filter.Pointillize:
		return Pointillize(img, params.Or(filter.Radius))
	case filter.Bloom:
		return Bloom(img, params.Or(filter.Intensity), params.Or(filter.Radius))
	case filter.Noir:
		return Noir(img)
	}
	return nil
}
