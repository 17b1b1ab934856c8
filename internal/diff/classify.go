package diff

import (
	"math"
	"strings"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

// Verdict is the threshold decision for one pair of scores.
type Verdict struct {
	Visual   bool
	Semantic bool
	Changed  bool
}

// Classify applies the configured thresholds to a region's scores.
func Classify(s scoring.Scores, cfg Config) Verdict {
	v := Verdict{
		Visual:   s.Perceptual > cfg.LPIPSThresh,
		Semantic: s.Semantic < cfg.ClipThresh,
	}
	v.Changed = v.Visual || v.Semantic
	return v
}

// Priority ranks a region for suppression. Clickable elements weigh 2,
// elements with text 1, and size adds up to 1 more at 10000 px².
func Priority(el dom.Element, area int) float64 {
	var p float64
	if el.IsClickable {
		p += 2
	}
	if strings.TrimSpace(el.Text) != "" {
		p++
	}
	return p + math.Min(1, float64(area)/10000)
}

func (r *ChangeRecord) apply(s scoring.Scores, cfg Config) {
	v := Classify(s, cfg)
	r.PerceptualScore = s.Perceptual
	r.SemanticScore = s.Semantic
	r.VisualChange = v.Visual
	r.SemanticChange = v.Semantic
	r.Changed = v.Changed
}
