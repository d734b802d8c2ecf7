package stdimg

import (
	"image"

	"github.com/disintegration/imaging"
)

// Bloom adds a glow to src by screen-blending a gaussian-blurred copy over it.
// intensity (0..1) weights the glow; radius is the blur sigma.
func Bloom(src *image.NRGBA, intensity, radius float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if intensity <= 0 {
		return CloneNRGBA(src)
	}
	glow := imaging.Blur(src, radius)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				gi := glow.PixOffset(x, y)
				o := out.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					s := float64(src.Pix[i+c]) / 255.0
					g := float64(glow.Pix[gi+c]) / 255.0 * intensity
					out.Pix[o+c] = uint8(clampFloatToUint8(blendScreen(s, g)*255.0 + 0.5))
				}
				out.Pix[o+3] = src.Pix[i+3]
			}
		}
	})
	return out
}

func blendScreen(sr, dr float64) float64 { return 1 - (1-sr)*(1-dr) }

// noirContrast is the contrast boost, in percent, applied after desaturation.
const noirContrast = 30

// Noir converts src to a high-contrast black and white image.
func Noir(src *image.NRGBA) *image.NRGBA {
	if src == nil {
		return nil
	}
	return imaging.AdjustContrast(imaging.Grayscale(src), noirContrast)
}
