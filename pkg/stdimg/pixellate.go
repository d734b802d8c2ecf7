package stdimg

import (
	"image"
	"math"
)

// Pixellate replaces src with square blocks of side scale pixels, each filled
// with the average colour of the pixels it covers. Blocks are anchored at the
// top-left corner; the last row and column may be narrower. Scales below 2
// return a copy.
func Pixellate(src *image.NRGBA, scale float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	block := int(math.Round(scale))
	if block <= 1 {
		return CloneNRGBA(src)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	rows := (h + block - 1) / block
	parallelRows(rows, func(r0, r1 int) {
		for by := r0 * block; by < r1*block && by < h; by += block {
			ey := minInt(by+block, h)
			for bx := 0; bx < w; bx += block {
				ex := minInt(bx+block, w)
				var sum [4]float64
				for y := by; y < ey; y++ {
					for x := bx; x < ex; x++ {
						i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
						for c := 0; c < 4; c++ {
							sum[c] += float64(src.Pix[i+c])
						}
					}
				}
				n := float64((ey - by) * (ex - bx))
				var avg [4]uint8
				for c := 0; c < 4; c++ {
					avg[c] = uint8(clampFloatToUint8(sum[c]/n + 0.5))
				}
				for y := by; y < ey; y++ {
					for x := bx; x < ex; x++ {
						o := out.PixOffset(x, y)
						copy(out.Pix[o:o+4], avg[:])
					}
				}
			}
		}
	})
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
