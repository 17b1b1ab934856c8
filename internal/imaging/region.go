package imaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRegion is wrapped by every region validation failure.
var ErrInvalidRegion = errors.New("invalid region")

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
//   - Width = X2 - X1, Height = Y2 - Y1
//
// Regions serialize to JSON as a four element array [x1, y1, x2, y2].
type Region struct {
	X1 int // Left edge X coordinate (inclusive)
	Y1 int // Top edge Y coordinate (inclusive)
	X2 int // Right edge X coordinate (exclusive)
	Y2 int // Bottom edge Y coordinate (exclusive)
}

// RegionFromBox builds a region from a top-left corner and a size.
func RegionFromBox(x, y, width, height int) Region {
	return Region{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width returns X2 - X1.
func (r Region) Width() int { return r.X2 - r.X1 }

// Height returns Y2 - Y1.
func (r Region) Height() int { return r.Y2 - r.Y1 }

// Area returns the region area in square pixels, or 0 for an empty region.
func (r Region) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty reports whether the region contains no pixels.
func (r Region) Empty() bool {
	return r.X1 >= r.X2 || r.Y1 >= r.Y2
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Intersect returns the overlap of r and other. The result is the zero
// Region when they do not overlap.
func (r Region) Intersect(other Region) Region {
	out := Region{
		X1: max(r.X1, other.X1),
		Y1: max(r.Y1, other.Y1),
		X2: min(r.X2, other.X2),
		Y2: min(r.Y2, other.Y2),
	}
	if out.Empty() {
		return Region{}
	}
	return out
}

// IntersectionArea returns the area shared by r and other.
func (r Region) IntersectionArea(other Region) int {
	return r.Intersect(other).Area()
}

// Contains reports whether r fully encloses other. Edges may coincide.
func (r Region) Contains(other Region) bool {
	return r.X1 <= other.X1 && r.Y1 <= other.Y1 && r.X2 >= other.X2 && r.Y2 >= other.Y2
}

// Offset translates the region by (-dx, -dy), moving it into the coordinate
// space of a crop whose origin is (dx, dy).
func (r Region) Offset(dx, dy int) Region {
	return Region{X1: r.X1 - dx, Y1: r.Y1 - dy, X2: r.X2 - dx, Y2: r.Y2 - dy}
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// MarshalJSON encodes the region as [x1, y1, x2, y2].
func (r Region) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.X1, r.Y1, r.X2, r.Y2})
}

// UnmarshalJSON decodes a region from [x1, y1, x2, y2].
func (r *Region) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("region: %w", err)
	}
	*r = Region{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	return nil
}

// ValidateRegion checks that r is usable as a crop of an image with the
// given bounds. It rejects regions narrower or shorter than minSize, regions
// that extend past the image edges, and degenerate regions (x1 >= x2 or
// y1 >= y2). All failures wrap ErrInvalidRegion.
func ValidateRegion(r Region, bounds image.Rectangle, minSize int) error {
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("%w: %s: x1 must be < x2, y1 must be < y2", ErrInvalidRegion, r)
	}
	if r.Width() < minSize || r.Height() < minSize {
		return fmt.Errorf("%w: %s: %dx%d below minimum size %d",
			ErrInvalidRegion, r, r.Width(), r.Height(), minSize)
	}
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return fmt.Errorf("%w: %s outside image bounds (%d,%d)-(%d,%d)",
			ErrInvalidRegion, r, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return nil
}
