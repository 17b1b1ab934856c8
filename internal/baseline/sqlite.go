package baseline

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

const schema = `
CREATE TABLE IF NOT EXISTS revisions (
	id          TEXT PRIMARY KEY,
	recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS captures (
	revision TEXT NOT NULL REFERENCES revisions(id) ON DELETE CASCADE,
	page     TEXT NOT NULL,
	image    BLOB NOT NULL,
	elements TEXT NOT NULL,
	PRIMARY KEY (revision, page)
);

CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	page           TEXT NOT NULL,
	prev_revision  TEXT NOT NULL,
	curr_revision  TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	total_regions  INTEGER NOT NULL,
	changed        INTEGER NOT NULL,
	change_percent REAL NOT NULL,
	report         TEXT NOT NULL,
	prev_png       BLOB,
	curr_png       BLOB
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

const stateKey = "last_revision"

type sqliteConfig struct {
	busyTimeout int
	mkdirAll    bool
	logger      *slog.Logger
}

// Option customises OpenSQLite.
type Option func(*sqliteConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *sqliteConfig) { c.busyTimeout = ms } }

// WithMkdirAll creates the parent directory of the database file.
func WithMkdirAll() Option { return func(c *sqliteConfig) { c.mkdirAll = true } }

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option { return func(c *sqliteConfig) { c.logger = l } }

// SQLite is a Store and RunStore backed by a single SQLite file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the store at path. ":memory:"
// opens a private in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLite, error) {
	cfg := sqliteConfig{busyTimeout: 10_000}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("baseline: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("baseline: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("baseline: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("baseline: schema: %w", err)
	}

	return &SQLite{db: db, logger: cfg.logger}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Record implements Store.
func (s *SQLite) Record(ctx context.Context, rev, page string, c dom.Capture) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("record %s/%s: %w", rev, page, err)
	}
	if err := CheckName(rev, page); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	png, err := imaging.EncodePNG(c.Image)
	if err != nil {
		return fmt.Errorf("record %s/%s: %w", rev, page, err)
	}
	elements, err := json.Marshal(c.Elements)
	if err != nil {
		return fmt.Errorf("record %s/%s: encode elements: %w", rev, page, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO revisions (id, recorded_at) VALUES (?, ?)`,
		rev, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("record revision %s: %w", rev, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO captures (revision, page, image, elements) VALUES (?, ?, ?, ?)
		 ON CONFLICT(revision, page) DO UPDATE SET image = excluded.image, elements = excluded.elements`,
		rev, page, png, string(elements)); err != nil {
		return fmt.Errorf("record capture %s/%s: %w", rev, page, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record: commit: %w", err)
	}

	s.logger.Info("capture recorded", "revision", rev, "page", page, "elements", len(c.Elements))
	return nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context, rev, page string) (dom.Capture, error) {
	var png []byte
	var elements string
	err := s.db.QueryRowContext(ctx,
		`SELECT image, elements FROM captures WHERE revision = ? AND page = ?`,
		rev, page).Scan(&png, &elements)
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Capture{}, fmt.Errorf("capture %s/%s: %w", rev, page, ErrNotFound)
	}
	if err != nil {
		return dom.Capture{}, fmt.Errorf("load capture %s/%s: %w", rev, page, err)
	}

	img, err := imaging.DecodeBytes(png)
	if err != nil {
		return dom.Capture{}, fmt.Errorf("load capture %s/%s: %w", rev, page, err)
	}
	els, err := dom.DecodeElements(bytes.NewReader([]byte(elements)))
	if err != nil {
		return dom.Capture{}, fmt.Errorf("load capture %s/%s: %w", rev, page, err)
	}
	return dom.Capture{Image: img, Elements: els}, nil
}

// Revisions implements Store.
func (s *SQLite) Revisions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM revisions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LoadState implements Store. A fresh store returns the zero State.
func (s *SQLite) LoadState(ctx context.Context) (State, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, stateKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	return State{LastRevision: v}, nil
}

// SaveState implements Store.
func (s *SQLite) SaveState(ctx context.Context, st State) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stateKey, st.LastRevision)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// SaveRun implements RunStore. An empty ID is filled with a new UUID and
// a zero CreatedAt with the current time.
func (s *SQLite) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	report := r.Report
	if report == nil {
		report = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, page, prev_revision, curr_revision, created_at,
		                   total_regions, changed, change_percent, report, prev_png, curr_png)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Page, r.PrevRevision, r.CurrRevision, r.CreatedAt.UnixMilli(),
		r.Summary.TotalRegions, r.Summary.ChangedRegions, r.Summary.ChangePercent,
		string(report), r.HighlightedPrev, r.HighlightedCurr)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Runs implements RunStore: newest first, without report bodies or images.
func (s *SQLite) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, page, prev_revision, curr_revision, created_at,
		        total_regions, changed, change_percent
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.Page, &r.PrevRevision, &r.CurrRevision, &created,
			&r.Summary.TotalRegions, &r.Summary.ChangedRegions, &r.Summary.ChangePercent); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run implements RunStore.
func (s *SQLite) Run(ctx context.Context, id string) (*Run, error) {
	var r Run
	var created int64
	var report string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, page, prev_revision, curr_revision, created_at,
		        total_regions, changed, change_percent, report, prev_png, curr_png
		 FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &r.Page, &r.PrevRevision, &r.CurrRevision, &created,
		&r.Summary.TotalRegions, &r.Summary.ChangedRegions, &r.Summary.ChangePercent,
		&report, &r.HighlightedPrev, &r.HighlightedCurr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.Report = json.RawMessage(report)
	return &r, nil
}
