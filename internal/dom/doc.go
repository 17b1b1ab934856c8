// Package dom models the structural half of a capture: the element list
// recorded next to each screenshot, and an optional id tree over it.
//
// Element lists come from the browser capture step as JSON arrays:
//
//	[{"tag": "button", "text": "Save", "x": 10, "y": 20, "width": 80, "height": 32,
//	  "id": "save", "parent_id": "toolbar", "is_visible": true, "is_clickable": true}]
//
// Decoding is lenient: coordinates may be floats (truncated toward zero),
// ids may be strings or numbers, and absent fields take their zero value
// except is_visible, which defaults to true.
package dom
