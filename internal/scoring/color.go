package scoring

import (
	"context"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a local semantic-similarity backend. It splits each crop into a
// Grid x Grid layout, averages every cell, and compares corresponding cells
// with the CIEDE2000 colour difference. The result is 1 minus the mean
// difference, clamped to 0..1, so identical crops score 1.
//
// It only sees colour layout, not meaning, and is meant for offline runs
// and tests where the embedding service is unavailable.
type Color struct {
	Grid int
}

// DefaultColor returns the colour backend with a 4x4 grid.
func DefaultColor() Color {
	return Color{Grid: 4}
}

// Similarity implements SimilarityScorer.
func (c Color) Similarity(ctx context.Context, a, b image.Image) (float64, error) {
	if err := sameSize(a, b); err != nil {
		return 0, err
	}
	grid := c.Grid
	if grid <= 0 {
		grid = 1
	}

	ca := cellMeans(a, grid)
	cb := cellMeans(b, grid)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var sum float64
	for i := range ca {
		sum += ca[i].DistanceCIEDE2000(cb[i])
	}
	sim := 1 - sum/float64(len(ca))
	switch {
	case sim < 0:
		sim = 0
	case sim > 1:
		sim = 1
	}
	return sim, nil
}

// cellMeans returns the mean colour of each grid cell in row-major order.
// Cells are clamped to at least one pixel so tiny crops still produce a
// full grid.
func cellMeans(img image.Image, grid int) []colorful.Color {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]colorful.Color, 0, grid*grid)

	for gy := 0; gy < grid; gy++ {
		y0 := b.Min.Y + gy*h/grid
		y1 := max(b.Min.Y+(gy+1)*h/grid, y0+1)
		for gx := 0; gx < grid; gx++ {
			x0 := b.Min.X + gx*w/grid
			x1 := max(b.Min.X+(gx+1)*w/grid, x0+1)

			var sr, sg, sb, n float64
			for y := y0; y < y1 && y < b.Max.Y; y++ {
				for x := x0; x < x1 && x < b.Max.X; x++ {
					r, g, bl, _ := img.At(x, y).RGBA()
					sr += float64(r >> 8)
					sg += float64(g >> 8)
					sb += float64(bl >> 8)
					n++
				}
			}
			if n == 0 {
				out = append(out, colorful.Color{})
				continue
			}
			out = append(out, colorful.Color{R: sr / n / 255, G: sg / n / 255, B: sb / n / 255})
		}
	}
	return out
}
