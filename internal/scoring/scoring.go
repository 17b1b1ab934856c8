package scoring

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
)

// DistanceScorer computes a perceptual distance between two crops of the
// same size. Higher means more visually different.
type DistanceScorer interface {
	Distance(ctx context.Context, a, b image.Image) (float64, error)
}

// SimilarityScorer computes a semantic similarity between two crops.
// Higher means more alike.
type SimilarityScorer interface {
	Similarity(ctx context.Context, a, b image.Image) (float64, error)
}

// Scores holds both measurements for one region pair.
type Scores struct {
	Perceptual float64 `json:"perceptual_score"`
	Semantic   float64 `json:"semantic_score"`
}

// Evaluator runs both scorers over a crop pair. It holds no per-call state
// and may be shared by concurrent evaluations.
type Evaluator struct {
	distance   DistanceScorer
	similarity SimilarityScorer
}

// NewEvaluator creates an evaluator from the two scoring capabilities.
func NewEvaluator(distance DistanceScorer, similarity SimilarityScorer) (*Evaluator, error) {
	if distance == nil {
		return nil, errors.New("scoring: distance scorer is required")
	}
	if similarity == nil {
		return nil, errors.New("scoring: similarity scorer is required")
	}
	return &Evaluator{distance: distance, similarity: similarity}, nil
}

// Evaluate scores a crop pair. Any scorer error, panic or non-finite score
// fails the whole evaluation; callers drop the region.
func (e *Evaluator) Evaluate(ctx context.Context, a, b image.Image) (s Scores, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}

	d, err := e.distance.Distance(ctx, a, b)
	if err != nil {
		return Scores{}, fmt.Errorf("perceptual distance: %w", err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Scores{}, fmt.Errorf("perceptual distance: non-finite score %v", d)
	}

	sim, err := e.similarity.Similarity(ctx, a, b)
	if err != nil {
		return Scores{}, fmt.Errorf("semantic similarity: %w", err)
	}
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return Scores{}, fmt.Errorf("semantic similarity: non-finite score %v", sim)
	}

	return Scores{Perceptual: d, Semantic: sim}, nil
}

func sameSize(a, b image.Image) error {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return fmt.Errorf("crop sizes differ: %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	if ab.Empty() {
		return errors.New("empty crop")
	}
	return nil
}
