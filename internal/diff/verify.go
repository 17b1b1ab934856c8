package diff

import (
	"context"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

// childMask returns the rectangles of the element's immediate children in
// the coordinate space of a crop at box. Children without a size are
// skipped. A nil result means there is nothing to mask.
func childMask(tree *dom.Tree, id string, box imaging.Region) []imaging.Region {
	if tree == nil || id == "" {
		return nil
	}
	var rects []imaging.Region
	for _, child := range tree.Children(id) {
		if child.Width <= 0 || child.Height <= 0 {
			continue
		}
		rects = append(rects, child.Box().Offset(box.X1, box.Y1))
	}
	return rects
}

// verifyMasked re-scores every changed record that has children with those
// children blacked out on both crops, and replaces the record's scores and
// flags with the result. Records that cannot be masked or fail to score
// keep their earlier verdict. Each record is independent, so the work runs
// on up to workers goroutines.
func verifyMasked(ctx context.Context, records ChangeSet, tree *dom.Tree, prevImg, currImg image.Image,
	eval *scoring.Evaluator, cfg Config, logger *slog.Logger) ChangeSet {
	out := records.clone()

	var g errgroup.Group
	g.SetLimit(max(cfg.Workers, 1))

	for i := range out {
		r := &out[i]
		if !r.Changed {
			continue
		}
		rects := childMask(tree, r.ElementID, r.BBox)
		if len(rects) == 0 {
			continue
		}

		g.Go(func() error {
			prevCrop, err := imaging.CropRegion(prevImg, r.BBox)
			if err != nil {
				logger.Warn("masked crop failed", "index", r.Index, "error", err)
				return nil
			}
			currCrop, err := imaging.CropRegion(currImg, r.BBox)
			if err != nil {
				logger.Warn("masked crop failed", "index", r.Index, "error", err)
				return nil
			}

			s, err := eval.Evaluate(ctx,
				imaging.Mask(prevCrop, rects, imaging.MaskColor),
				imaging.Mask(currCrop, rects, imaging.MaskColor))
			if err != nil {
				logger.Warn("masked scoring failed, keeping first pass", "index", r.Index, "error", err)
				return nil
			}

			r.apply(s, cfg)
			r.Masked = true
			logger.Debug("masked verification", "index", r.Index, "children", len(rects), "changed", r.Changed)
			return nil
		})
	}
	g.Wait()
	return out
}
