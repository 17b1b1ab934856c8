// Package scoring measures how different two crops of the same region are.
//
// Two capabilities are kept separate because they come from different
// models: a perceptual distance (higher = more visually different) and a
// semantic similarity (higher = more alike). An Evaluator pairs one of each.
//
// # Backends
//
// Package backends builds these by name from configuration. Only it
// depends on Tesseract.
//
// Distance:
//   - http: remote model service (LPIPS-style)
//   - pixel: local blurred grayscale difference
//   - edge: local Canny edge-map mismatch
//
// Similarity:
//   - http: remote embedding service (CLIP-style)
//   - color: local CIEDE2000 comparison of a colour grid
//   - ocr: local Tesseract text comparison
//
// Scores for different regions are independent, so Evaluate may be called
// concurrently. There is no retry policy: a failed call fails the region.
package scoring
