package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// MaskColor is the fill used for blacked-out child regions.
var MaskColor = color.NRGBA{0, 0, 0, 255}

// Mask returns a copy of img with every rect painted as a solid block of c.
//
// Rects are expressed in img's coordinate space. Parts that fall outside the
// image are clipped; rects that do not intersect the image at all are
// ignored. The source image is never modified.
func Mask(img image.Image, rects []Region, c color.Color) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()
	fill := image.NewUniform(c)
	for _, r := range rects {
		clipped := r.Rect().Intersect(bounds)
		if clipped.Empty() {
			continue
		}
		draw.Draw(out, clipped, fill, image.Point{}, draw.Src)
	}
	return out
}
