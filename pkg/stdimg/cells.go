package stdimg

import (
	"image"
	"math"
	"math/rand"
)

// cellSeed is the fixed seed for the jittered grids so renders are repeatable
// for the same parameters.
const cellSeed = 1

// cellGrid holds one jittered seed point per square cell.
type cellGrid struct {
	size       int
	cols, rows int
	seeds      []image.Point
}

func newCellGrid(w, h, size int) *cellGrid {
	cols := (w + size - 1) / size
	rows := (h + size - 1) / size
	g := &cellGrid{size: size, cols: cols, rows: rows, seeds: make([]image.Point, cols*rows)}
	rng := rand.New(rand.NewSource(cellSeed))
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			x := cx*size + rng.Intn(size)
			y := cy*size + rng.Intn(size)
			g.seeds[cy*cols+cx] = image.Pt(clampInt(x, 0, w-1), clampInt(y, 0, h-1))
		}
	}
	return g
}

// nearest returns the seed closest to (x,y) and the squared distance to it.
// Seeds stay inside their own cell, so two rings of neighbours are enough.
func (g *cellGrid) nearest(x, y int) (image.Point, int) {
	cx := x / g.size
	cy := y / g.size
	best := image.Point{}
	bestD := math.MaxInt
	for ny := cy - 2; ny <= cy+2; ny++ {
		if ny < 0 || ny >= g.rows {
			continue
		}
		for nx := cx - 2; nx <= cx+2; nx++ {
			if nx < 0 || nx >= g.cols {
				continue
			}
			p := g.seeds[ny*g.cols+nx]
			dx := p.X - x
			dy := p.Y - y
			if d := dx*dx + dy*dy; d < bestD {
				bestD = d
				best = p
			}
		}
	}
	return best, bestD
}

// Crystallize partitions src into Voronoi cells of roughly radius pixels and
// fills each cell with the colour found at its seed.
func Crystallize(src *image.NRGBA, radius float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	size := int(math.Round(radius))
	if size <= 1 {
		return CloneNRGBA(src)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	g := newCellGrid(w, h, size)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p, _ := g.nearest(x, y)
				si := src.PixOffset(b.Min.X+p.X, b.Min.Y+p.Y)
				o := out.PixOffset(x, y)
				copy(out.Pix[o:o+4], src.Pix[si:si+4])
			}
		}
	})
	return out
}

// Pointillize renders src as round dots of the given radius laid on a
// jittered grid. Each dot takes the colour at its centre; pixels outside every
// dot are white with the source alpha.
func Pointillize(src *image.NRGBA, radius float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	r := int(math.Round(radius))
	if r < 1 {
		return CloneNRGBA(src)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	g := newCellGrid(w, h, 2*r)
	r2 := r * r
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				o := out.PixOffset(x, y)
				p, d := g.nearest(x, y)
				if d <= r2 {
					si := src.PixOffset(b.Min.X+p.X, b.Min.Y+p.Y)
					copy(out.Pix[o:o+4], src.Pix[si:si+4])
					continue
				}
				out.Pix[o+0] = 255
				out.Pix[o+1] = 255
				out.Pix[o+2] = 255
				out.Pix[o+3] = src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
			}
		}
	})
	return out
}
