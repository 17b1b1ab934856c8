// Package server implements the MCP (Model Context Protocol) server for
// visual change detection.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Comparison:
//   - visual_compare: Compare two captures given as screenshot and element JSON paths
//   - visual_compare_next: Compare the next pending revision pair in the baseline store
//
// Baseline store:
//   - baseline_record: Record a capture for a revision
//   - baseline_list: List recorded revisions and the comparison cursor
//   - visual_runs: List stored runs or fetch one report
//
// Inspection:
//   - image_crop: Extract a reported bbox as base64 PNG
//   - image_ocr_region: Read the text inside a bbox
//
// # Image Caching
//
// Loaded screenshots are cached by path so that inspection calls after a
// comparison do not re-read the file. visual_compare always refreshes the
// entries for its own inputs.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. Unknown methods return
// -32601 and malformed tools/call params -32602.
package server
