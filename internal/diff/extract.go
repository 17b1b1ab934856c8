package diff

import (
	"image"
	"log/slog"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
	"github.com/ironsheep/visual-diff-mcp/internal/match"
)

// candidate is a matched pair whose region survived validation, with both
// crops cut at the same box.
type candidate struct {
	pair match.Pair
	box  imaging.Region
	prev *image.NRGBA
	curr *image.NRGBA
}

// extract turns matched pairs into candidates. The box comes from the
// before element and is cut from both images unchanged. Pairs whose box is
// too small, degenerate or outside either image are dropped.
func extract(pairs []match.Pair, prevImg, currImg image.Image, cfg Config, logger *slog.Logger) []candidate {
	out := make([]candidate, 0, len(pairs))
	for _, p := range pairs {
		box := p.Prev.Box()

		err := imaging.ValidateRegion(box, prevImg.Bounds(), cfg.MinSize)
		if err == nil {
			err = imaging.ValidateRegion(box, currImg.Bounds(), cfg.MinSize)
		}
		if err != nil {
			if cfg.Debug {
				logger.Info("region skipped", "index", p.Index, "tag", p.Prev.Tag, "error", err)
			}
			continue
		}

		prevCrop, err := imaging.CropRegion(prevImg, box)
		if err != nil {
			logger.Warn("crop failed", "index", p.Index, "side", "prev", "error", err)
			continue
		}
		currCrop, err := imaging.CropRegion(currImg, box)
		if err != nil {
			logger.Warn("crop failed", "index", p.Index, "side", "curr", "error", err)
			continue
		}

		out = append(out, candidate{pair: p, box: box, prev: prevCrop, curr: currCrop})
	}
	return out
}
