// Package imaging provides the pixel-level operations used by the visual
// change engine: region geometry, cropping, masking, highlighting, edge
// maps and encoding.
//
// All operations work with standard Go image.Image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Copies, Not Mutation
//
// CropRegion, Mask and Highlight always return a fresh *image.NRGBA. Images
// passed in are never written to, so a single decoded screenshot can be
// shared by concurrent region evaluations.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds
//   - Malformed regions (x1 >= x2 or y1 >= y2)
//   - Regions below the minimum size
//   - File I/O errors during image loading
//   - Encoding errors during image output
//
// Region failures wrap ErrInvalidRegion so callers can tell a rejected
// element from an I/O problem with errors.Is.
package imaging
