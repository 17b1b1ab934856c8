package diff

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"testing"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// paint returns a copy of img with rect filled with c.
func paint(img *image.RGBA, rect image.Rectangle, c color.Color) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	draw.Draw(out, rect, image.NewUniform(c), image.Point{}, draw.Src)
	return out
}

// differingFraction is the share of pixels that differ between two
// same-sized images.
func differingFraction(a, b image.Image) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	total := ab.Dx() * ab.Dy()
	if total == 0 {
		return 0
	}
	diff := 0
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			r1, g1, b1, a1 := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				diff++
			}
		}
	}
	return float64(diff) / float64(total)
}

// fractionScorer scores a pair by the share of changed pixels: the distance
// is the share itself and the similarity its complement.
type fractionScorer struct {
	failWidth int
}

func (f fractionScorer) Distance(_ context.Context, a, b image.Image) (float64, error) {
	if f.failWidth > 0 && a.Bounds().Dx() == f.failWidth {
		return 0, errors.New("scoring service unavailable")
	}
	return differingFraction(a, b), nil
}

func (f fractionScorer) Similarity(_ context.Context, a, b image.Image) (float64, error) {
	return 1 - differingFraction(a, b), nil
}

func newTestEngine(t *testing.T, cfg Config, scorer fractionScorer) *Engine {
	t.Helper()
	eval, err := scoring.NewEvaluator(scorer, scorer)
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	e, err := New(cfg, eval, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func el(tag string, x, y, w, h int) dom.Element {
	return dom.Element{Tag: tag, X: x, Y: y, Width: w, Height: h, IsVisible: true}
}
