package stdimg

import (
	"image"
	"math"
)

// Vignette darkens src toward its corners. intensity is the strength of the
// effect in 0..1; the falloff reaches full strength at half the image diagonal.
func Vignette(src *image.NRGBA, intensity float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	return VignetteAt(src, 0, 0, b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2, intensity)
}

// VignetteAt applies a radial darkening centered at (cx,cy).
// radius specifies the maximum radius (in pixels) where effect reaches full strength.
// sigma controls the smoothness (gaussian falloff). If radius<=0, it's set to half the image diagonal.
// strength controls maximum darkening where 1.0 means full darkening, 0.0 means no
// effect. Values outside [0,1] are clamped.
// The mask is continuous: mask(d) = (1 - exp(-0.5*(d^2)/(sigma^2))) / (1 - exp(-0.5*(radius^2)/(sigma^2))).
// RGB is multiplied by (1 - mask*strength).
func VignetteAt(src *image.NRGBA, radius, sigma float64, cx, cy int, strength float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	b := src.Bounds()
	w := b.Dx()
	h := b.Dy()
	if radius <= 0 {
		radius = math.Hypot(float64(w), float64(h)) / 2.0
	}
	if sigma <= 0 {
		sigma = radius / 2.0
	}
	// precompute normalizer at radius
	normAtRadius := 1 - math.Exp(-0.5*(radius*radius)/(sigma*sigma))
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				d := math.Hypot(float64(b.Min.X+x-cx), float64(b.Min.Y+y-cy))

				mask := 1 - math.Exp(-0.5*(d*d)/(sigma*sigma))
				if normAtRadius > 0 {
					mask /= normAtRadius
				}
				if mask < 0 {
					mask = 0
				}
				if mask > 1 {
					mask = 1
				}
				factor := 1.0 - mask*strength
				o := out.PixOffset(x, y)
				out.Pix[o+0] = uint8(clampFloatToUint8(float64(src.Pix[i+0]) * factor))
				out.Pix[o+1] = uint8(clampFloatToUint8(float64(src.Pix[i+1]) * factor))
				out.Pix[o+2] = uint8(clampFloatToUint8(float64(src.Pix[i+2]) * factor))
				out.Pix[o+3] = src.Pix[i+3]
			}
		}
	})
	return out
}
