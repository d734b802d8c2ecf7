package stdimg

import (
	"image"
)

// SepiaTone maps src through the classic sepia matrix and blends the result
// with the original. intensity is in 0..1: 1.0 is full sepia, 0.0 returns a
// copy of the original. Fully transparent pixels are copied unchanged.
func SepiaTone(src *image.NRGBA, intensity float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if intensity <= 0 {
		return CloneNRGBA(src)
	}
	if intensity > 1 {
		intensity = 1
	}

	b := src.Bounds()
	w := b.Dx()
	h := b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				o := out.PixOffset(x, y)
				alpha := src.Pix[i+3]
				if alpha == 0 {
					copy(out.Pix[o:o+4], src.Pix[i:i+4])
					continue
				}
				r := float64(src.Pix[i+0])
				g := float64(src.Pix[i+1])
				b_ := float64(src.Pix[i+2])

				sr := clampFloatToUint8(0.393*r + 0.769*g + 0.189*b_)
				sg := clampFloatToUint8(0.349*r + 0.686*g + 0.168*b_)
				sb := clampFloatToUint8(0.272*r + 0.534*g + 0.131*b_)

				out.Pix[o+0] = uint8(clampFloatToUint8((1-intensity)*r + intensity*sr))
				out.Pix[o+1] = uint8(clampFloatToUint8((1-intensity)*g + intensity*sg))
				out.Pix[o+2] = uint8(clampFloatToUint8((1-intensity)*b_ + intensity*sb))
				out.Pix[o+3] = alpha
			}
		}
	})
	return out
}
