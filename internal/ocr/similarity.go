package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// TextSimilarity is a semantic-similarity backend that compares the text
// Tesseract reads from each crop. The score is the normalized Levenshtein
// ratio of the two whitespace-collapsed, lower-cased strings: 1 for
// identical text (including two crops with no text at all), 0 when nothing
// overlaps.
type TextSimilarity struct {
	Language string

	// extract is swapped in tests; nil means ExtractText.
	extract func(img image.Image, language string) (string, error)
}

// NewTextSimilarity creates an OCR similarity backend for language.
func NewTextSimilarity(language string) *TextSimilarity {
	return &TextSimilarity{Language: language}
}

// Similarity implements the scoring.SimilarityScorer contract.
func (s *TextSimilarity) Similarity(ctx context.Context, a, b image.Image) (float64, error) {
	extract := s.extract
	if extract == nil {
		extract = ExtractText
	}

	ta, err := extract(a, s.Language)
	if err != nil {
		return 0, fmt.Errorf("ocr before crop: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tb, err := extract(b, s.Language)
	if err != nil {
		return 0, fmt.Errorf("ocr after crop: %w", err)
	}

	return Ratio(Normalize(ta), Normalize(tb)), nil
}

// Normalize lower-cases text and collapses every whitespace run to a single
// space.
func Normalize(text string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(text), unicode.IsSpace), " ")
}

// Ratio returns 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
