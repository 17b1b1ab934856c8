package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ironsheep/visual-diff-mcp/internal/baseline"
	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// ErrBaselineRecorded is returned while the store holds fewer than two
// revisions: the first capture only establishes the baseline.
var ErrBaselineRecorded = errors.New("baseline recorded, nothing to compare yet")

// Result is one completed comparison of consecutive revisions.
type Result struct {
	RunID        string       `json:"run_id,omitempty"`
	Page         string       `json:"page"`
	PrevRevision string       `json:"prev_revision"`
	CurrRevision string       `json:"curr_revision"`
	Report       *diff.Report `json:"report"`
}

// Dir returns the directory under root that holds this result's report:
// root/page/prev_curr. Names that would escape root are rejected.
func (res *Result) Dir(root string) (string, error) {
	if err := baseline.CheckName(res.PrevRevision, res.Page); err != nil {
		return "", err
	}
	if err := baseline.CheckName(res.CurrRevision, res.Page); err != nil {
		return "", err
	}
	return filepath.Join(root, res.Page, res.PrevRevision+"_"+res.CurrRevision), nil
}

// Runner compares the next pending revision pair of one page.
type Runner struct {
	store  baseline.Store
	engine *diff.Engine
	page   string
	logger *slog.Logger
}

// New creates a runner. A nil logger uses slog.Default().
func New(store baseline.Store, engine *diff.Engine, page string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, engine: engine, page: page, logger: logger}
}

// Next compares the first pending pair after state and returns the result
// with the advanced state. The state is not persisted. When the store can
// keep run history the result is saved there and RunID is set.
func (r *Runner) Next(ctx context.Context, state baseline.State) (*Result, baseline.State, error) {
	pair, err := baseline.NextPair(ctx, r.store, state, r.page)
	if errors.Is(err, baseline.ErrNotEnoughRevisions) {
		return nil, state, fmt.Errorf("%w: %w", ErrBaselineRecorded, err)
	}
	if err != nil {
		return nil, state, err
	}

	r.logger.Info("comparing revisions", "page", r.page, "prev", pair.PrevRevision, "curr", pair.CurrRevision)
	report, err := r.engine.Compare(ctx, pair.Prev, pair.Curr)
	if err != nil {
		return nil, state, fmt.Errorf("compare %s→%s: %w", pair.PrevRevision, pair.CurrRevision, err)
	}

	res := &Result{
		Page:         r.page,
		PrevRevision: pair.PrevRevision,
		CurrRevision: pair.CurrRevision,
		Report:       report,
	}

	if runs, ok := r.store.(baseline.RunStore); ok {
		run, err := NewRun(res)
		if err != nil {
			return nil, state, err
		}
		if err := runs.SaveRun(ctx, run); err != nil {
			return nil, state, err
		}
		res.RunID = run.ID
	}

	return res, baseline.State{LastRevision: pair.CurrRevision}, nil
}

// Advance loads the stored state, runs Next and saves the advanced state.
func (r *Runner) Advance(ctx context.Context) (*Result, error) {
	state, err := r.store.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	res, next, err := r.Next(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := r.store.SaveState(ctx, next); err != nil {
		return nil, err
	}
	return res, nil
}

// NewRun converts a result into a storable run with PNG-encoded images.
func NewRun(res *Result) (*baseline.Run, error) {
	body, err := json.Marshal(res.Report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	run := &baseline.Run{
		Page:         res.Page,
		PrevRevision: res.PrevRevision,
		CurrRevision: res.CurrRevision,
		Summary:      res.Report.Summary(),
		Report:       body,
	}
	if res.Report.HighlightedPrev != nil {
		if run.HighlightedPrev, err = imaging.EncodePNG(res.Report.HighlightedPrev); err != nil {
			return nil, err
		}
	}
	if res.Report.HighlightedCurr != nil {
		if run.HighlightedCurr, err = imaging.EncodePNG(res.Report.HighlightedCurr); err != nil {
			return nil, err
		}
	}
	return run, nil
}
