package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
	"github.com/ironsheep/visual-diff-mcp/internal/match"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring/backends"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "VISUAL_DIFF_"

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreFiles  = "files"
)

// Config is the complete runtime configuration. The env tags name the
// overrides read by Load, each behind EnvPrefix.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Scoring ScoringConfig `yaml:"scoring"`
	Store   StoreConfig   `yaml:"store"`
	HTTP    HTTPConfig    `yaml:"http"`

	// Page is the capture name used by the store when none is given.
	Page string `yaml:"page" env:"PAGE"`

	// OutputDir receives highlighted images written by the CLI.
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
}

// EngineConfig mirrors diff.Config in file form.
type EngineConfig struct {
	LPIPSThresh       float64 `yaml:"lpips_thresh" env:"LPIPS_THRESH"`
	ClipThresh        float64 `yaml:"clip_thresh" env:"CLIP_THRESH"`
	MinSize           int     `yaml:"min_size" env:"MIN_SIZE"`
	ContainmentThresh float64 `yaml:"containment_thresh" env:"CONTAINMENT_THRESH"`
	Debug             bool    `yaml:"debug" env:"DEBUG"`
	Matcher           string  `yaml:"matcher" env:"MATCHER"`
	Masking           bool    `yaml:"masking" env:"MASKING"`
	Workers           int     `yaml:"workers" env:"WORKERS"`
	HighlightColor    string  `yaml:"highlight_color" env:"HIGHLIGHT_COLOR"`
	HighlightWidth    int     `yaml:"highlight_width" env:"HIGHLIGHT_WIDTH"`
	Labels            bool    `yaml:"labels" env:"LABELS"`
}

// ScoringConfig selects the two scoring backends.
type ScoringConfig struct {
	Distance   backends.Config `yaml:"distance" envPrefix:"DISTANCE_"`
	Similarity backends.Config `yaml:"similarity" envPrefix:"SIMILARITY_"`
}

// StoreConfig selects the baseline store.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER"`
	Path   string `yaml:"path" env:"STORE_PATH"`
}

// HTTPConfig configures the report API.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR"`
}

// sharedEnv holds overrides that set more than one field.
type sharedEnv struct {
	ScoringTimeout time.Duration `env:"SCORING_TIMEOUT"`
	OCRLanguage    string        `env:"OCR_LANGUAGE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := diff.DefaultConfig()
	return &Config{
		Engine: EngineConfig{
			LPIPSThresh:       d.LPIPSThresh,
			ClipThresh:        d.ClipThresh,
			MinSize:           d.MinSize,
			ContainmentThresh: d.ContainmentThresh,
			Matcher:           d.Matcher,
			Masking:           d.Masking,
			Workers:           d.Workers,
			HighlightColor:    "#FF0000",
			HighlightWidth:    d.Highlight.Width,
		},
		Scoring: ScoringConfig{
			Distance:   backends.Config{Backend: backends.Pixel, Timeout: 30 * time.Second, MaxSide: 512},
			Similarity: backends.Config{Backend: backends.Color, Timeout: 30 * time.Second, MaxSide: 512, Language: "eng"},
		},
		Store:     StoreConfig{Driver: StoreSQLite, Path: "visual-diff.db"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Page:      "home",
		OutputDir: "visual-diff-out",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. A nil environment reads the
// process environment.
func (c *Config) applyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var shared sharedEnv
	if err := env.ParseWithOptions(&shared, opts); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if shared.ScoringTimeout != 0 {
		c.Scoring.Distance.Timeout = shared.ScoringTimeout
		c.Scoring.Similarity.Timeout = shared.ScoringTimeout
	}
	if shared.OCRLanguage != "" {
		c.Scoring.Similarity.Language = shared.OCRLanguage
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	eng, err := c.EngineConfig()
	if err != nil {
		return err
	}
	if err := eng.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch c.Store.Driver {
	case StoreSQLite, StoreFiles:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store path is required", ErrInvalid)
	}
	if c.Page == "" {
		return fmt.Errorf("%w: page is required", ErrInvalid)
	}

	if _, err := backends.NewDistance(c.Scoring.Distance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := backends.NewSimilarity(c.Scoring.Similarity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// EngineConfig converts the engine section to a diff.Config.
func (c *Config) EngineConfig() (diff.Config, error) {
	col, err := imaging.ParseHexColor(c.Engine.HighlightColor)
	if err != nil {
		return diff.Config{}, fmt.Errorf("%w: highlight_color: %v", ErrInvalid, err)
	}
	matcher := c.Engine.Matcher
	if matcher == "" {
		matcher = match.StrategyAuto
	}
	return diff.Config{
		LPIPSThresh:       c.Engine.LPIPSThresh,
		ClipThresh:        c.Engine.ClipThresh,
		MinSize:           c.Engine.MinSize,
		ContainmentThresh: c.Engine.ContainmentThresh,
		Debug:             c.Engine.Debug,
		Matcher:           matcher,
		Masking:           c.Engine.Masking,
		Workers:           c.Engine.Workers,
		Highlight: imaging.HighlightStyle{
			Color:  col,
			Width:  c.Engine.HighlightWidth,
			Labels: c.Engine.Labels,
		},
	}, nil
}

// Evaluator builds the scoring evaluator from the scoring section.
func (c *Config) Evaluator() (*scoring.Evaluator, error) {
	return backends.NewEvaluator(c.Scoring.Distance, c.Scoring.Similarity)
}
