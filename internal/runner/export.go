package runner

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/visual-diff-mcp/internal/diff"
)

// Files lists what WriteReport produced.
type Files struct {
	Report          string   `json:"report"`
	HighlightedPrev string   `json:"highlighted_prev"`
	HighlightedCurr string   `json:"highlighted_curr"`
	Segments        []string `json:"segments,omitempty"`
}

// WriteReport saves a report under dir: report.json, both highlighted
// images, and when withSegments is set the before/after crop of every
// changed region as segments/<index>_prev.png and <index>_curr.png.
func WriteReport(dir string, rep *diff.Report, withSegments bool) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := &Files{
		Report:          filepath.Join(dir, "report.json"),
		HighlightedPrev: filepath.Join(dir, "highlighted_prev.png"),
		HighlightedCurr: filepath.Join(dir, "highlighted_curr.png"),
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(files.Report, data, 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := imgio.Save(files.HighlightedPrev, rep.HighlightedPrev, imgio.PNGEncoder()); err != nil {
		return nil, fmt.Errorf("write highlighted image: %w", err)
	}
	if err := imgio.Save(files.HighlightedCurr, rep.HighlightedCurr, imgio.PNGEncoder()); err != nil {
		return nil, fmt.Errorf("write highlighted image: %w", err)
	}

	if !withSegments {
		return files, nil
	}

	segDir := filepath.Join(dir, "segments")
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return nil, fmt.Errorf("create segments dir: %w", err)
	}
	changed := make(map[int]bool)
	for _, r := range rep.Scores {
		if r.Changed {
			changed[r.Index] = true
		}
	}
	for _, seg := range rep.Segments {
		if !changed[seg.Index] {
			continue
		}
		sides := []struct {
			name string
			img  image.Image
		}{{"prev", seg.Prev}, {"curr", seg.Curr}}
		for _, side := range sides {
			path := filepath.Join(segDir, fmt.Sprintf("%d_%s.png", seg.Index, side.name))
			if err := imgio.Save(path, side.img, imgio.PNGEncoder()); err != nil {
				return nil, fmt.Errorf("write segment: %w", err)
			}
			files.Segments = append(files.Segments, path)
		}
	}
	return files, nil
}
