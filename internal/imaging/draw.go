package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HighlightStyle controls how changed regions are outlined.
type HighlightStyle struct {
	// Color is the outline color.
	Color color.Color

	// Width is the outline thickness in pixels, drawn inward from the region edge.
	Width int

	// Labels draws the 1-based region number above each outline.
	Labels bool
}

// DefaultHighlightStyle is a 2px red outline without labels.
func DefaultHighlightStyle() HighlightStyle {
	return HighlightStyle{Color: color.NRGBA{255, 0, 0, 255}, Width: 2}
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}

	switch len(hex) {
	case 7:
		c, err := colorful.Hex(hex)
		if err != nil {
			return color.NRGBA{}, err
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 9:
		c, err := colorful.Hex(hex[:7])
		if err != nil {
			return color.NRGBA{}, err
		}
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha: %w", err)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: uint8(a)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}
}

// Highlight returns a copy of img with an outline drawn around each region.
// Regions are in img's coordinates and are clipped to its bounds. The copy
// starts at (0,0), so an image with a non-zero origin has its regions moved
// along with it.
func Highlight(img image.Image, regions []Region, style HighlightStyle) *image.NRGBA {
	out := imaging.Clone(img)
	origin := img.Bounds().Min
	width := style.Width
	if width <= 0 {
		width = 1
	}
	for i, r := range regions {
		r = r.Offset(origin.X, origin.Y)
		drawOutline(out, r, style.Color, width)
		if style.Labels {
			drawLabel(out, r.X1, r.Y1, strconv.Itoa(i+1), style.Color)
		}
	}
	return out
}

// drawOutline paints the four edges of r, each width pixels thick.
func drawOutline(img draw.Image, r Region, c color.Color, width int) {
	bounds := img.Bounds()
	rect := r.Rect().Intersect(bounds)
	if rect.Empty() {
		return
	}
	fill := image.NewUniform(c)
	w := min(width, rect.Dx(), rect.Dy())

	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+w), // top
		image.Rect(rect.Min.X, rect.Max.Y-w, rect.Max.X, rect.Max.Y), // bottom
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+w, rect.Max.Y), // left
		image.Rect(rect.Max.X-w, rect.Min.Y, rect.Max.X, rect.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(img, e, fill, image.Point{}, draw.Src)
	}
}

// drawLabel writes text on a filled tab sitting just above (x, y). When there
// is no room above the region the tab is placed inside its top edge.
func drawLabel(img draw.Image, x, y int, text string, bg color.Color) {
	face := basicfont.Face7x13
	bounds := img.Bounds()

	labelWidth := font.MeasureString(face, text).Ceil() + 4
	labelHeight := face.Height + 2

	top := y - labelHeight
	if top < bounds.Min.Y {
		top = y
	}
	tab := image.Rect(x, top, x+labelWidth, top+labelHeight).Intersect(bounds)
	if tab.Empty() {
		return
	}
	draw.Draw(img, tab, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x+2, top+face.Ascent+1),
	}
	d.DrawString(text)
}
