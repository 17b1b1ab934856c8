package scoring

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Pixel is a local perceptual-distance backend for running without the
// model service. Both crops are converted to grayscale and blurred so that
// anti-aliasing noise does not register, then compared pixel by pixel.
//
// The score is the mean absolute luminance difference scaled to 0..1:
// identical crops score 0 and a black crop against a white one scores 1.
type Pixel struct {
	// BlurRadius is the gaussian blur radius in pixels. Zero disables blurring.
	BlurRadius float64
}

// DefaultPixel returns the pixel backend with a 1px blur.
func DefaultPixel() Pixel {
	return Pixel{BlurRadius: 1.0}
}

// Distance implements DistanceScorer.
func (p Pixel) Distance(ctx context.Context, a, b image.Image) (float64, error) {
	if err := sameSize(a, b); err != nil {
		return 0, err
	}

	ga := p.prepare(a)
	gb := p.prepare(b)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ab, bb := ga.Bounds(), gb.Bounds()
	w, h := ab.Dx(), ab.Dy()

	var total float64
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			va := luminance(ga.At(ab.Min.X+dx, ab.Min.Y+dy))
			vb := luminance(gb.At(bb.Min.X+dx, bb.Min.Y+dy))
			total += math.Abs(va - vb)
		}
	}

	return total / float64(w*h) / 255.0, nil
}

func (p Pixel) prepare(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	if p.BlurRadius <= 0 {
		return gray
	}
	return blur.Gaussian(gray, p.BlurRadius)
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	// Grayscale output has equal channels; average guards against rounding.
	return float64((r>>8)+(g>>8)+(b>>8)) / 3.0
}
