package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// EdgeMap is a binary edge image: true marks an edge pixel. Indexing is
// row-major from the image's top-left corner.
type EdgeMap struct {
	Width, Height int
	Pix           []bool
}

// At reports whether (x, y) is an edge. Out-of-range points are not.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, p := range m.Pix {
		if p {
			n++
		}
	}
	return n
}

// NearEdge reports whether any edge lies within radius pixels of (x, y).
func (m *EdgeMap) NearEdge(x, y, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if m.At(x+dx, y+dy) {
				return true
			}
		}
	}
	return false
}

// Gray renders the map as a grayscale image with edges in white.
func (m *EdgeMap) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, p := range m.Pix {
		if p {
			out.Pix[i] = 255
		}
	}
	return out
}

// Edges runs Canny-style edge detection over img.
//
//  1. Grayscale and a gaussian blur to suppress anti-aliasing noise
//  2. Sobel gradients, magnitude and direction
//  3. Non-maximum suppression to thin edges to one pixel
//  4. Hysteresis: magnitudes at or above high are edges, those at or above
//     low are edges only next to a strong one
//
// Thresholds are on the 0-255 scale; 50/150 suits UI screenshots.
func Edges(img image.Image, low, high int) *EdgeMap {
	gray := blur.Gaussian(effect.Grayscale(img), 1.4)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = float64(color.GrayModel.Convert(gray.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y) / 255.0
		}
	}
	at := func(x, y int) float64 {
		return lum[clamp(y, 0, h-1)*w+clamp(x, 0, w-1)]
	}

	mag := make([]float64, w*h)
	dir := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			mag[y*w+x] = math.Hypot(gx, gy)
			dir[y*w+x] = math.Atan2(gy, gx)
		}
	}

	thin := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			n1, n2 := neighbours(mag, w, x, y, dir[i])
			if mag[i] >= n1 && mag[i] >= n2 {
				thin[i] = mag[i]
			}
		}
	}

	lo, hi := float64(low)/255.0, float64(high)/255.0
	m := &EdgeMap{Width: w, Height: h, Pix: make([]bool, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := thin[y*w+x]
			switch {
			case v >= hi:
				m.Pix[y*w+x] = true
			case v >= lo:
				m.Pix[y*w+x] = strongNeighbour(thin, w, h, x, y, hi)
			}
		}
	}
	return m
}

// neighbours returns the two magnitudes along the gradient direction.
func neighbours(mag []float64, w, x, y int, angle float64) (float64, float64) {
	a := math.Mod(angle+math.Pi, math.Pi) // fold to [0, π)
	switch {
	case a < math.Pi/8 || a >= 7*math.Pi/8:
		return mag[y*w+x-1], mag[y*w+x+1]
	case a < 3*math.Pi/8:
		return mag[(y-1)*w+x+1], mag[(y+1)*w+x-1]
	case a < 5*math.Pi/8:
		return mag[(y-1)*w+x], mag[(y+1)*w+x]
	default:
		return mag[(y-1)*w+x-1], mag[(y+1)*w+x+1]
	}
}

func strongNeighbour(thin []float64, w, h, x, y int, hi float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			if thin[clamp(y+ky, 0, h-1)*w+clamp(x+kx, 0, w-1)] >= hi {
				return true
			}
		}
	}
	return false
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
