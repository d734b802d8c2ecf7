package stdimg

import (
	"image"
)

// UnsharpMask sharpens src by adding amount times the difference between src
// and a gaussian blur of the given sigma. Alpha is preserved.
func UnsharpMask(src *image.NRGBA, sigma float64, amount float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if amount <= 0 || sigma <= 0 {
		return CloneNRGBA(src)
	}
	blurred := SeparableGaussianBlur(src, sigma)
	b := src.Bounds()
	w := b.Dx()
	h := b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				bi := blurred.PixOffset(x, y)
				oi := out.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					s := float64(src.Pix[i+c])
					// mask = src - blurred
					m := s - float64(blurred.Pix[bi+c])
					out.Pix[oi+c] = uint8(clampFloatToUint8(s + amount*m + 0.5))
				}
				out.Pix[oi+3] = src.Pix[i+3]
			}
		}
	})
	return out
}
