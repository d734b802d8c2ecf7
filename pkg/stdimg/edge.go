package stdimg

import (
	"image"
	"math"
)

// Edges runs a Sobel detector over the luminance of src and writes the
// gradient magnitude, multiplied by intensity, as a grey level. Unlike a
// normalised edge map the output brightness scales with intensity, so 0
// yields a black image. Alpha is copied from src.
func Edges(src *image.NRGBA, intensity float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			r := float64(src.Pix[i+0]) / 255.0
			g := float64(src.Pix[i+1]) / 255.0
			b_ := float64(src.Pix[i+2]) / 255.0
			lum[y*w+x] = 0.2126*r + 0.7152*g + 0.0722*b_
		}
	}
	at := func(x, y int) float64 {
		return lum[clampInt(y, 0, h-1)*w+clampInt(x, 0, w-1)]
	}

	// Sobel kernels
	gx := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				sumX := 0.0
				sumY := 0.0
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						l := at(x+kx, y+ky)
						sumX += l * gx[ky+1][kx+1]
						sumY += l * gy[ky+1][kx+1]
					}
				}
				m := math.Sqrt(sumX*sumX+sumY*sumY) * intensity * 255.0
				val := uint8(clampFloatToUint8(m))
				i := out.PixOffset(x, y)
				out.Pix[i+0] = val
				out.Pix[i+1] = val
				out.Pix[i+2] = val
				out.Pix[i+3] = src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
			}
		}
	})
	return out
}
