package diff

import (
	"fmt"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
	"github.com/ironsheep/visual-diff-mcp/internal/match"
)

// Fatal input errors. Either side of a comparison missing its image or its
// element list aborts the whole run.
var (
	ErrMissingImage    = dom.ErrMissingImage
	ErrMissingElements = dom.ErrMissingElements
)

// Config holds the thresholds and switches of one engine.
type Config struct {
	// LPIPSThresh is the perceptual distance above which a region counts
	// as visually changed.
	LPIPSThresh float64 `json:"lpips_thresh"`

	// ClipThresh is the semantic similarity below which a region counts
	// as semantically changed.
	ClipThresh float64 `json:"clip_thresh"`

	// MinSize is the smallest accepted region width and height in pixels.
	MinSize int `json:"min_size"`

	// ContainmentThresh is the intersection-over-inner-area ratio at which
	// two changed regions are treated as nested.
	ContainmentThresh float64 `json:"containment_thresh"`

	// Debug logs every rejected region at Info level, so it shows up
	// without lowering the handler level.
	Debug bool `json:"debug"`

	// Matcher names the element matching strategy; see match.New.
	Matcher string `json:"matcher"`

	// Masking enables the masked verification pass.
	Masking bool `json:"masking"`

	// Workers bounds concurrent scoring calls. Zero or less means one.
	Workers int `json:"workers"`

	Highlight imaging.HighlightStyle `json:"-"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		LPIPSThresh:       0.03,
		ClipThresh:        0.98,
		MinSize:           20,
		ContainmentThresh: 0.8,
		Matcher:           match.StrategyAuto,
		Masking:           true,
		Workers:           4,
		Highlight:         imaging.DefaultHighlightStyle(),
	}
}

// Validate checks the ranges of every option.
func (c Config) Validate() error {
	if c.LPIPSThresh < 0 {
		return fmt.Errorf("lpips_thresh must be >= 0, got %v", c.LPIPSThresh)
	}
	if c.ClipThresh < 0 || c.ClipThresh > 1 {
		return fmt.Errorf("clip_thresh must be within [0, 1], got %v", c.ClipThresh)
	}
	if c.MinSize < 1 {
		return fmt.Errorf("min_size must be >= 1, got %d", c.MinSize)
	}
	if c.ContainmentThresh <= 0 || c.ContainmentThresh > 1 {
		return fmt.Errorf("containment_thresh must be within (0, 1], got %v", c.ContainmentThresh)
	}
	if _, err := match.New(c.Matcher); err != nil {
		return err
	}
	return nil
}
