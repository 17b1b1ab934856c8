package diff

import (
	"sort"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// Suppress clears redundant changed verdicts among nested or overlapping
// regions and returns the updated copy of records.
//
// Changed records are ranked by priority (highest first), then area
// (smallest first), then detection order. For every ranked pair (i, j)
// with i ranked first, j is suppressed when the two regions are nested:
// j encloses i, i encloses j, or their intersection covers at least
// thresh of i's area. A suppressed record keeps its scores but loses all
// three change flags.
func Suppress(records ChangeSet, thresh float64) ChangeSet {
	out := records.clone()

	var ranked []int
	for i, r := range out {
		if r.Changed {
			ranked = append(ranked, i)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		ra, rb := out[ranked[a]], out[ranked[b]]
		if ra.Priority != rb.Priority {
			return ra.Priority > rb.Priority
		}
		return ra.Area < rb.Area
	})

	suppressed := make(map[int]bool)
	for a := 0; a < len(ranked); a++ {
		inner := out[ranked[a]].BBox
		for b := a + 1; b < len(ranked); b++ {
			if nested(inner, out[ranked[b]].BBox, thresh) {
				suppressed[ranked[b]] = true
			}
		}
	}

	for idx := range suppressed {
		r := &out[idx]
		r.Changed = false
		r.VisualChange = false
		r.SemanticChange = false
		r.Suppressed = true
	}
	return out
}

// nested reports whether later should be suppressed in favour of first.
func nested(first, later imaging.Region, thresh float64) bool {
	if later.Contains(first) || first.Contains(later) {
		return true
	}
	area := first.Area()
	if area == 0 {
		return false
	}
	return float64(first.IntersectionArea(later))/float64(area) >= thresh
}
