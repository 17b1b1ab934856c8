package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/dom"
)

var (
	// ErrNotFound is returned when a revision, capture or run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotEnoughRevisions is returned when fewer than two revisions are
	// recorded, so there is nothing to compare yet.
	ErrNotEnoughRevisions = errors.New("fewer than two revisions recorded")

	// ErrNoPendingPair is returned when every recorded revision has already
	// been compared.
	ErrNoPendingPair = errors.New("no revision pair left to compare")

	// ErrInvalidName is returned for a revision or page that is empty or
	// is not a single path element.
	ErrInvalidName = errors.New("invalid revision or page name")
)

// CheckName reports whether rev and page can be used as path elements.
// Both stores require it so revisions are safe to join under an output
// directory.
func CheckName(rev, page string) error {
	for _, n := range []string{rev, page} {
		if n == "" || n == "." || n == ".." || filepath.Base(n) != n {
			return fmt.Errorf("%w: %q/%q", ErrInvalidName, rev, page)
		}
	}
	return nil
}

// State is the comparison cursor. It is owned by the caller: the engine
// never reads or writes it, and stores only persist it on request.
type State struct {
	// LastRevision is the "after" revision of the most recent comparison.
	LastRevision string `json:"last_revision"`
}

// Store persists captures keyed by revision and page.
type Store interface {
	// Record saves a capture. The revision is appended to the history the
	// first time it is seen.
	Record(ctx context.Context, rev, page string, c dom.Capture) error

	// Load returns a recorded capture, or ErrNotFound.
	Load(ctx context.Context, rev, page string) (dom.Capture, error)

	// Revisions lists recorded revisions, oldest first.
	Revisions(ctx context.Context) ([]string, error)

	LoadState(ctx context.Context) (State, error)
	SaveState(ctx context.Context, s State) error

	Close() error
}

// Run is one stored comparison result.
type Run struct {
	ID           string          `json:"id"`
	Page         string          `json:"page"`
	PrevRevision string          `json:"prev_revision"`
	CurrRevision string          `json:"curr_revision"`
	CreatedAt    time.Time       `json:"created_at"`
	Summary      diff.Summary    `json:"summary"`
	Report       json.RawMessage `json:"report,omitempty"`

	// PNG encodings of the highlighted images. Listing queries leave them empty.
	HighlightedPrev []byte `json:"-"`
	HighlightedCurr []byte `json:"-"`
}

// RunStore keeps comparison history. Stores that cannot hold runs do not
// implement it.
type RunStore interface {
	SaveRun(ctx context.Context, r *Run) error
	Runs(ctx context.Context, limit int) ([]Run, error)
	Run(ctx context.Context, id string) (*Run, error)
}

// Pair is two consecutive recorded captures of one page.
type Pair struct {
	PrevRevision string
	CurrRevision string
	Prev         dom.Capture
	Curr         dom.Capture
}

// NextPair finds the first consecutive revision pair after state whose
// captures of page both load. With an empty state the search starts at
// the oldest revision. A revision whose capture is missing or unreadable
// is skipped.
func NextPair(ctx context.Context, s Store, state State, page string) (*Pair, error) {
	history, err := s.Revisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	if len(history) < 2 {
		return nil, ErrNotEnoughRevisions
	}

	start := 0
	if state.LastRevision != "" {
		if i := slices.Index(history, state.LastRevision); i >= 0 {
			start = i
		}
	}

	for i := start; i < len(history)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev, err := s.Load(ctx, history[i], page)
		if err != nil {
			continue
		}
		curr, err := s.Load(ctx, history[i+1], page)
		if err != nil {
			continue
		}
		return &Pair{
			PrevRevision: history[i],
			CurrRevision: history[i+1],
			Prev:         prev,
			Curr:         curr,
		}, nil
	}
	return nil, ErrNoPendingPair
}
