package diff

import (
	"encoding/json"
	"image"
	"time"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// Segment holds the two crops of one evaluated region.
type Segment struct {
	Index int            `json:"index"`
	Tag   string         `json:"tag"`
	BBox  imaging.Region `json:"bbox"`
	Prev  image.Image    `json:"-"`
	Curr  image.Image    `json:"-"`
}

// Report is the result of one comparison.
type Report struct {
	HighlightedPrev *image.NRGBA
	HighlightedCurr *image.NRGBA

	// Scores is the change set in detection order.
	Scores ChangeSet

	// Segments are the crops of every scored region, in the same order.
	Segments []Segment

	Matcher  string
	Duration time.Duration
}

// Summary recomputes the summary from the current scores.
func (r *Report) Summary() Summary {
	return r.Scores.Summary()
}

type reportJSON struct {
	Scores     ChangeSet `json:"scores"`
	Summary    Summary   `json:"summary"`
	Matcher    string    `json:"matcher,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// MarshalJSON encodes the score table and summary. Images are left out;
// callers export them separately.
func (r *Report) MarshalJSON() ([]byte, error) {
	scores := r.Scores
	if scores == nil {
		scores = ChangeSet{}
	}
	return json.Marshal(reportJSON{
		Scores:     scores,
		Summary:    scores.Summary(),
		Matcher:    r.Matcher,
		DurationMS: r.Duration.Milliseconds(),
	})
}

// BuildReport draws an outline around every changed region on copies of
// both images and assembles the report.
func BuildReport(prevImg, currImg image.Image, scores ChangeSet, style imaging.HighlightStyle) *Report {
	changed := scores.Changed().Regions()
	return &Report{
		HighlightedPrev: imaging.Highlight(prevImg, changed, style),
		HighlightedCurr: imaging.Highlight(currImg, changed, style),
		Scores:          scores,
	}
}
