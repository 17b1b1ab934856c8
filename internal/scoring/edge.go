package scoring

import (
	"context"
	"image"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// Edge is a structural perceptual-distance backend. It compares the Canny
// edge maps of the two crops, so a recoloured button with the same layout
// scores low while moved or reshaped content scores high.
//
// An edge pixel counts as matched when the other crop has an edge within
// Tolerance pixels. The distance is the unmatched share of all edge pixels
// on both sides; two crops without edges score 0.
type Edge struct {
	Low, High int
	Tolerance int
}

// DefaultEdge returns the edge backend with 50/150 thresholds and a 1px
// tolerance.
func DefaultEdge() Edge {
	return Edge{Low: 50, High: 150, Tolerance: 1}
}

// Distance implements DistanceScorer.
func (e Edge) Distance(ctx context.Context, a, b image.Image) (float64, error) {
	if err := sameSize(a, b); err != nil {
		return 0, err
	}

	ea := imaging.Edges(a, e.Low, e.High)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	eb := imaging.Edges(b, e.Low, e.High)

	total := ea.Count() + eb.Count()
	if total == 0 {
		return 0, nil
	}
	unmatched := unmatchedEdges(ea, eb, e.Tolerance) + unmatchedEdges(eb, ea, e.Tolerance)
	return float64(unmatched) / float64(total), nil
}

// unmatchedEdges counts edges of m with no edge of other nearby.
func unmatchedEdges(m, other *imaging.EdgeMap, tolerance int) int {
	n := 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) && !other.NearEdge(x, y, tolerance) {
				n++
			}
		}
	}
	return n
}
