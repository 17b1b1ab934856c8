// Package backends builds scorers from configuration. It is kept apart
// from package scoring so the engine does not link Tesseract unless a
// caller asks for the ocr backend by name.
package backends

import (
	"fmt"
	"time"

	"github.com/ironsheep/visual-diff-mcp/internal/ocr"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

// Backend names accepted by NewDistance and NewSimilarity.
const (
	HTTP  = "http"
	Pixel = "pixel"
	Edge  = "edge"
	Color = "color"
	OCR   = "ocr"
)

// Config selects and configures one scoring backend. Environment names
// are relative to the prefix of the enclosing section.
type Config struct {
	Backend  string        `yaml:"backend" env:"BACKEND"`
	URL      string        `yaml:"url" env:"URL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxSide  int           `yaml:"max_side" env:"MAX_SIDE"`
	Language string        `yaml:"language"`
}

// NewDistance builds the perceptual-distance backend named by cfg.Backend.
func NewDistance(cfg Config) (scoring.DistanceScorer, error) {
	switch cfg.Backend {
	case HTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("scoring: http distance backend needs a url")
		}
		return scoring.NewHTTPService(cfg.URL, cfg.Timeout, cfg.MaxSide), nil
	case Pixel, "":
		return scoring.DefaultPixel(), nil
	case Edge:
		return scoring.DefaultEdge(), nil
	default:
		return nil, fmt.Errorf("scoring: unknown distance backend: %s", cfg.Backend)
	}
}

// NewSimilarity builds the semantic-similarity backend named by cfg.Backend.
func NewSimilarity(cfg Config) (scoring.SimilarityScorer, error) {
	switch cfg.Backend {
	case HTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("scoring: http similarity backend needs a url")
		}
		return scoring.NewHTTPService(cfg.URL, cfg.Timeout, cfg.MaxSide), nil
	case Color, "":
		return scoring.DefaultColor(), nil
	case OCR:
		return ocr.NewTextSimilarity(cfg.Language), nil
	default:
		return nil, fmt.Errorf("scoring: unknown similarity backend: %s", cfg.Backend)
	}
}

// NewEvaluator builds both backends and pairs them.
func NewEvaluator(distance, similarity Config) (*scoring.Evaluator, error) {
	d, err := NewDistance(distance)
	if err != nil {
		return nil, err
	}
	s, err := NewSimilarity(similarity)
	if err != nil {
		return nil, err
	}
	return scoring.NewEvaluator(d, s)
}
