package diff

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/match"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

// Engine compares pairs of captures. It keeps no state between calls and
// may be shared.
type Engine struct {
	cfg     Config
	eval    *scoring.Evaluator
	matcher match.Matcher // nil selects per comparison
	logger  *slog.Logger
}

// New creates an engine. A nil logger uses slog.Default().
func New(cfg Config, eval *scoring.Evaluator, logger *slog.Logger) (*Engine, error) {
	if eval == nil {
		return nil, fmt.Errorf("diff: evaluator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("diff: invalid config: %w", err)
	}
	m, err := match.New(cfg.Matcher)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, eval: eval, matcher: m, logger: logger}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compare runs one comparison: match, extract, score, classify, suppress,
// optionally verify with children masked, then draw the report.
//
// A capture missing its image or element list fails the call with
// ErrMissingImage or ErrMissingElements. Every per-region problem only
// removes that region. The input images are never modified.
func (e *Engine) Compare(ctx context.Context, prev, curr dom.Capture) (*Report, error) {
	start := time.Now()

	if err := prev.Validate(); err != nil {
		return nil, fmt.Errorf("before capture: %w", err)
	}
	if err := curr.Validate(); err != nil {
		return nil, fmt.Errorf("after capture: %w", err)
	}

	m := e.matcher
	if m == nil {
		m = match.Select(prev, curr)
	}
	pairs := m.Match(prev.Elements, curr.Elements)
	candidates := extract(pairs, prev.Image, curr.Image, e.cfg, e.logger)

	records, segments := e.evaluate(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records = Suppress(records, e.cfg.ContainmentThresh)

	if e.cfg.Masking {
		if tree, ok := dom.BuildTree(prev.Elements); ok {
			records = verifyMasked(ctx, records, tree, prev.Image, curr.Image, e.eval, e.cfg, e.logger)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	report := BuildReport(prev.Image, curr.Image, records, e.cfg.Highlight)
	report.Segments = segments
	report.Matcher = m.Name()
	report.Duration = time.Since(start)

	sum := report.Summary()
	e.logger.Info("comparison complete",
		"matcher", report.Matcher,
		"pairs", len(pairs),
		"regions", sum.TotalRegions,
		"changed", sum.ChangedRegions,
		"duration", report.Duration)
	return report, nil
}

// evaluate scores every candidate concurrently and returns the records in
// detection order. Candidates whose scoring fails are dropped.
func (e *Engine) evaluate(ctx context.Context, candidates []candidate) (ChangeSet, []Segment) {
	results := make([]*ChangeRecord, len(candidates))

	var g errgroup.Group
	g.SetLimit(max(e.cfg.Workers, 1))
	for i, c := range candidates {
		g.Go(func() error {
			s, err := e.eval.Evaluate(ctx, c.prev, c.curr)
			if err != nil {
				e.logger.Warn("region dropped", "index", c.pair.Index, "tag", c.pair.Prev.Tag, "error", err)
				return nil
			}
			area := c.box.Area()
			r := &ChangeRecord{
				Index:     c.pair.Index,
				ElementID: c.pair.Prev.ID,
				Tag:       c.pair.Prev.Tag,
				Text:      c.pair.Prev.Text,
				BBox:      c.box,
				Priority:  Priority(c.pair.Prev, area),
				Area:      area,
			}
			r.apply(s, e.cfg)
			results[i] = r
			return nil
		})
	}
	g.Wait()

	records := make(ChangeSet, 0, len(candidates))
	segments := make([]Segment, 0, len(candidates))
	for i, r := range results {
		if r == nil {
			continue
		}
		records = append(records, *r)
		c := candidates[i]
		segments = append(segments, Segment{
			Index: r.Index,
			Tag:   r.Tag,
			BBox:  r.BBox,
			Prev:  c.prev,
			Curr:  c.curr,
		})
	}
	return records, segments
}
