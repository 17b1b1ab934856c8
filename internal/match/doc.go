// Package match aligns the elements of a "before" capture with those of an
// "after" capture.
//
// Three interchangeable strategies fit different capture capabilities:
//   - Positional: same traversal index and same tag (plain element arrays)
//   - Fingerprint: same tag, bounding box and leading text
//   - ByID: same stable id and tag (captures that record element ids)
//
// Elements with no correspondent are excluded silently. They are not
// reported as additions or removals.
package match
