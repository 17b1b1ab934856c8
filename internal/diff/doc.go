// Package diff finds and reports meaningful visual changes between two
// captures of the same page.
//
// A comparison runs in fixed stages:
//
//  1. Match elements of the before and after captures (package match).
//  2. Cut both screenshots at each matched element's box; boxes that are
//     too small or fall outside either image are dropped.
//  3. Score every crop pair for perceptual distance and semantic
//     similarity (package scoring), concurrently.
//  4. Classify each region against the thresholds and rank it.
//  5. Suppress changed regions that nest with a better-ranked one.
//  6. When the capture carries ids, re-score surviving changes with their
//     child elements blacked out and keep that verdict.
//  7. Outline the remaining changes on copies of both screenshots.
//
// Stages 5 and 6 start only after all of stage 3 has finished. The output
// order is always the before capture's element order.
//
// Example:
//
//	eval, _ := scoring.NewEvaluator(scoring.DefaultPixel(), scoring.DefaultColor())
//	engine, _ := diff.New(diff.DefaultConfig(), eval, logger)
//	report, err := engine.Compare(ctx, before, after)
package diff
