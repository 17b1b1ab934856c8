package match

import (
	"fmt"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
)

// fingerprintTextLen is how many runes of text take part in a fingerprint.
const fingerprintTextLen = 30

// Positional pairs elements that share a traversal index. A pair whose tags
// differ is dropped.
type Positional struct{}

func (Positional) Name() string { return StrategyPositional }

func (Positional) Match(prev, curr []dom.Element) []Pair {
	n := min(len(prev), len(curr))
	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		if prev[i].Tag != curr[i].Tag {
			continue
		}
		pairs = append(pairs, Pair{Prev: prev[i], Curr: curr[i], Index: i})
	}
	return pairs
}

// Fingerprint pairs elements whose (tag, geometry, leading text) key occurs
// in both captures. Pairs follow the before capture's order. When a key
// repeats, occurrences are paired first to first, second to second, and
// leftovers on either side are dropped.
type Fingerprint struct{}

func (Fingerprint) Name() string { return StrategyFingerprint }

func (Fingerprint) Match(prev, curr []dom.Element) []Pair {
	available := make(map[string][]int, len(curr))
	for j, e := range curr {
		k := FingerprintKey(e)
		available[k] = append(available[k], j)
	}

	var pairs []Pair
	for i, e := range prev {
		k := FingerprintKey(e)
		queue := available[k]
		if len(queue) == 0 {
			continue
		}
		available[k] = queue[1:]
		pairs = append(pairs, Pair{Prev: e, Curr: curr[queue[0]], Index: i})
	}
	return pairs
}

// FingerprintKey derives the matching key of an element from its tag,
// bounding box and the first 30 runes of its text.
func FingerprintKey(e dom.Element) string {
	text := []rune(e.Text)
	if len(text) > fingerprintTextLen {
		text = text[:fingerprintTextLen]
	}
	return fmt.Sprintf("%s|%d|%d|%d|%d|%s", e.Tag, e.X, e.Y, e.Width, e.Height, string(text))
}

// ByID pairs elements carrying the same stable id and the same tag.
// Elements without an id never match.
type ByID struct{}

func (ByID) Name() string { return StrategyID }

func (ByID) Match(prev, curr []dom.Element) []Pair {
	byID := make(map[string]int, len(curr))
	for j, e := range curr {
		if e.ID == "" {
			continue
		}
		if _, dup := byID[e.ID]; !dup {
			byID[e.ID] = j
		}
	}

	var pairs []Pair
	for i, e := range prev {
		if e.ID == "" {
			continue
		}
		j, ok := byID[e.ID]
		if !ok || curr[j].Tag != e.Tag {
			continue
		}
		pairs = append(pairs, Pair{Prev: e, Curr: curr[j], Index: i})
	}
	return pairs
}
