package match

import (
	"fmt"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
)

// Pair links a "before" element to the "after" element believed to
// represent the same UI node. Index is the position of Prev in the before
// capture and fixes the detection order of everything derived from the pair.
type Pair struct {
	Prev  dom.Element
	Curr  dom.Element
	Index int
}

// Matcher aligns the elements of two captures. Elements without a
// correspondent are left out of the result; that is not an error.
type Matcher interface {
	Name() string
	Match(prev, curr []dom.Element) []Pair
}

// Strategy names accepted by New.
const (
	StrategyPositional  = "positional"
	StrategyFingerprint = "fingerprint"
	StrategyID          = "id"
	StrategyAuto        = "auto"
)

// New returns the matcher registered under name. "auto" and "" return nil
// with no error; callers resolve them per comparison with Select.
func New(name string) (Matcher, error) {
	switch name {
	case StrategyPositional:
		return Positional{}, nil
	case StrategyFingerprint:
		return Fingerprint{}, nil
	case StrategyID:
		return ByID{}, nil
	case StrategyAuto, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown matcher strategy: %s", name)
	}
}

// Select picks a matcher from what the captures can support: ByID when
// every element on both sides carries a stable id, Positional otherwise.
func Select(prev, curr dom.Capture) Matcher {
	if prev.HasIDs() && curr.HasIDs() {
		return ByID{}
	}
	return Positional{}
}
