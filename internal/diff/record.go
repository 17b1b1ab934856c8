package diff

import (
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// ChangeRecord is the verdict for one evaluated region.
type ChangeRecord struct {
	// Index is the position of the source element in the before capture.
	Index     int    `json:"index"`
	ElementID string `json:"element_id,omitempty"`

	Tag  string         `json:"tag"`
	Text string         `json:"text"`
	BBox imaging.Region `json:"bbox"`

	PerceptualScore float64 `json:"perceptual_score"`
	SemanticScore   float64 `json:"semantic_score"`
	VisualChange    bool    `json:"visual_change"`
	SemanticChange  bool    `json:"semantic_change"`
	Changed         bool    `json:"changed"`

	Priority   float64 `json:"priority"`
	Area       int     `json:"area"`
	Suppressed bool    `json:"suppressed"`

	// Masked is set when the scores come from the masked verification pass.
	Masked bool `json:"masked"`
}

// ChangeSet is every record of one comparison in detection order.
type ChangeSet []ChangeRecord

// Summary aggregates a change set.
type Summary struct {
	TotalRegions   int     `json:"total_regions"`
	ChangedRegions int     `json:"changed_regions"`
	ChangePercent  float64 `json:"change_percent"`
}

// Summary counts the set as it is now. It is not cached.
func (cs ChangeSet) Summary() Summary {
	s := Summary{TotalRegions: len(cs)}
	for _, r := range cs {
		if r.Changed {
			s.ChangedRegions++
		}
	}
	if s.TotalRegions > 0 {
		s.ChangePercent = 100 * float64(s.ChangedRegions) / float64(s.TotalRegions)
	}
	return s
}

// Changed returns the records still flagged as changed.
func (cs ChangeSet) Changed() ChangeSet {
	var out ChangeSet
	for _, r := range cs {
		if r.Changed {
			out = append(out, r)
		}
	}
	return out
}

// Regions returns the bounding boxes of the set, in order.
func (cs ChangeSet) Regions() []imaging.Region {
	out := make([]imaging.Region, len(cs))
	for i, r := range cs {
		out[i] = r.BBox
	}
	return out
}

func (cs ChangeSet) clone() ChangeSet {
	if cs == nil {
		return nil
	}
	out := make(ChangeSet, len(cs))
	copy(out, cs)
	return out
}
