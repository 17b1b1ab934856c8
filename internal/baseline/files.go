package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
)

const (
	historyFile = "commit_cache.json"
	stateFile   = "state.json"
)

// Files is a Store over a directory tree:
//
//	<root>/commit_cache.json        {"history": ["rev1", "rev2", ...]}
//	<root>/<rev>/<page>.png
//	<root>/<rev>/<page>_dom.json
//	<root>/state.json               {"last_revision": "..."}
//
// A missing or corrupt history file reads as an empty history.
type Files struct {
	root   string
	logger *slog.Logger
	mu     sync.Mutex
}

type history struct {
	History []string `json:"history"`
}

// OpenFiles returns a store rooted at dir, creating the directory.
func OpenFiles(dir string, logger *slog.Logger) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Files{root: dir, logger: logger}, nil
}

// Close implements Store.
func (f *Files) Close() error { return nil }

func (f *Files) paths(rev, page string) (img, elements string) {
	dir := filepath.Join(f.root, rev)
	return filepath.Join(dir, page+".png"), filepath.Join(dir, page+"_dom.json")
}

// Record implements Store.
func (f *Files) Record(ctx context.Context, rev, page string, c dom.Capture) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("record %s/%s: %w", rev, page, err)
	}
	if err := CheckName(rev, page); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	imgPath, domPath := f.paths(rev, page)
	if err := os.MkdirAll(filepath.Dir(imgPath), 0o755); err != nil {
		return fmt.Errorf("record %s/%s: %w", rev, page, err)
	}
	if err := imgio.Save(imgPath, c.Image, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("record %s/%s: save image: %w", rev, page, err)
	}
	data, err := json.MarshalIndent(c.Elements, "", "  ")
	if err != nil {
		return fmt.Errorf("record %s/%s: encode elements: %w", rev, page, err)
	}
	if err := os.WriteFile(domPath, data, 0o644); err != nil {
		return fmt.Errorf("record %s/%s: %w", rev, page, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.readHistory()
	if !slices.Contains(h.History, rev) {
		h.History = append(h.History, rev)
		if err := f.writeJSON(historyFile, h); err != nil {
			return err
		}
	}

	f.logger.Info("capture recorded", "revision", rev, "page", page, "elements", len(c.Elements))
	return nil
}

// Load implements Store.
func (f *Files) Load(ctx context.Context, rev, page string) (dom.Capture, error) {
	imgPath, domPath := f.paths(rev, page)
	if _, err := os.Stat(imgPath); errors.Is(err, fs.ErrNotExist) {
		return dom.Capture{}, fmt.Errorf("capture %s/%s: %w", rev, page, ErrNotFound)
	}
	if _, err := os.Stat(domPath); errors.Is(err, fs.ErrNotExist) {
		return dom.Capture{}, fmt.Errorf("capture %s/%s: %w", rev, page, ErrNotFound)
	}
	return dom.LoadCapture(imgPath, domPath)
}

// Revisions implements Store.
func (f *Files) Revisions(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readHistory().History, nil
}

// LoadState implements Store.
func (f *Files) LoadState(ctx context.Context) (State, error) {
	var s State
	data, err := os.ReadFile(filepath.Join(f.root, stateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	return s, nil
}

// SaveState implements Store.
func (f *Files) SaveState(ctx context.Context, s State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeJSON(stateFile, s)
}

func (f *Files) readHistory() history {
	var h history
	data, err := os.ReadFile(filepath.Join(f.root, historyFile))
	if err != nil {
		return history{}
	}
	if err := json.Unmarshal(data, &h); err != nil {
		f.logger.Warn("history file is corrupt, starting empty", "error", err)
		return history{}
	}
	return h
}

func (f *Files) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(f.root, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
