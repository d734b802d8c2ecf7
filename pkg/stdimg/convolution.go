package stdimg

import (
	"image"
	"math"
)

// gaussianKernel1D generates a 1D Gaussian kernel with given sigma. Returns kernel and half-width radius.
func gaussianKernel1D(sigma float64) ([]float64, int) {
	if sigma <= 0 {
		return []float64{1.0}, 0
	}
	// choose radius ~ ceil(3*sigma)
	radius := int(math.Ceil(3 * sigma))
	sz := radius*2 + 1
	kern := make([]float64, sz)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * (float64(i) * float64(i)) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	// normalize
	for i := range kern {
		kern[i] /= sum
	}
	return kern, radius
}

// SeparableGaussianBlur applies a separable gaussian blur to src and returns a new *image.NRGBA.
// A non-positive sigma returns a copy of src.
func SeparableGaussianBlur(src *image.NRGBA, sigma float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if sigma <= 0 {
		return CloneNRGBA(src)
	}
	kern, radius := gaussianKernel1D(sigma)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	// horizontal pass
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				sr, sg, sb, sa := 0.0, 0.0, 0.0, 0.0
				for k := -radius; k <= radius; k++ {
					c := samplePixelClamped(src, b.Min.X+x+k, b.Min.Y+y)
					wgt := kern[k+radius]
					sr += float64(c.R) * wgt
					sg += float64(c.G) * wgt
					sb += float64(c.B) * wgt
					sa += float64(c.A) * wgt
				}
				i := tmp.PixOffset(x, y)
				tmp.Pix[i+0] = uint8(clampFloatToUint8(sr + 0.5))
				tmp.Pix[i+1] = uint8(clampFloatToUint8(sg + 0.5))
				tmp.Pix[i+2] = uint8(clampFloatToUint8(sb + 0.5))
				tmp.Pix[i+3] = uint8(clampFloatToUint8(sa + 0.5))
			}
		}
	})

	// vertical pass; every row of tmp is complete at this point
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				sr, sg, sb, sa := 0.0, 0.0, 0.0, 0.0
				for k := -radius; k <= radius; k++ {
					c := samplePixelClamped(tmp, x, y+k)
					wgt := kern[k+radius]
					sr += float64(c.R) * wgt
					sg += float64(c.G) * wgt
					sb += float64(c.B) * wgt
					sa += float64(c.A) * wgt
				}
				i := dst.PixOffset(x, y)
				dst.Pix[i+0] = uint8(clampFloatToUint8(sr + 0.5))
				dst.Pix[i+1] = uint8(clampFloatToUint8(sg + 0.5))
				dst.Pix[i+2] = uint8(clampFloatToUint8(sb + 0.5))
				dst.Pix[i+3] = uint8(clampFloatToUint8(sa + 0.5))
			}
		}
	})
	return dst
}
