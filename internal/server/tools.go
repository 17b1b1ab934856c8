package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Comparison
		{
			Name:        "visual_compare",
			Description: "Compare two captures of a page (screenshot plus element JSON) and report which UI regions changed. Nested changes are collapsed to the most specific region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"prev_image": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the before screenshot",
					},
					"prev_dom": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the before element JSON",
					},
					"curr_image": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the after screenshot",
					},
					"curr_dom": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the after element JSON",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory for highlighted images and report.json",
					},
					"include_images": map[string]interface{}{
						"type":        "boolean",
						"description": "Return both highlighted images as base64 PNG. Default false",
						"default":     false,
					},
					"include_segments": map[string]interface{}{
						"type":        "boolean",
						"description": "Return before/after crops of every changed region as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"prev_image", "prev_dom", "curr_image", "curr_dom"},
			},
		},
		{
			Name:        "visual_compare_next",
			Description: "Compare the next pending pair of recorded revisions in the baseline store and advance the comparison cursor.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"page": map[string]interface{}{
						"type":        "string",
						"description": "Page name. Defaults to the configured page",
					},
				},
			},
		},

		// Baseline store
		{
			Name:        "baseline_record",
			Description: "Record a capture for a revision in the baseline store. The first recorded revision becomes the baseline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"revision": map[string]interface{}{
						"type":        "string",
						"description": "Revision identifier, e.g. a commit hash",
					},
					"page": map[string]interface{}{
						"type":        "string",
						"description": "Page name. Defaults to the configured page",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the screenshot",
					},
					"dom": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the element JSON",
					},
				},
				"required": []string{"revision", "image", "dom"},
			},
		},
		{
			Name:        "baseline_list",
			Description: "List recorded revisions, oldest first, and the revision the last comparison ended at.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "visual_runs",
			Description: "List stored comparison runs, newest first, or fetch one run's full report by id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Run id. When set, the full report is returned",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum runs to list. Default 20",
						"default":     20,
					},
				},
			},
		},

		// Inspection
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to look closely at a reported bbox.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_ocr_region",
			Description: "Read the text inside a region of an image with Tesseract. Useful to see what copy changed in a reported bbox.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x1": map[string]interface{}{"type": "integer"},
					"y1": map[string]interface{}{"type": "integer"},
					"x2": map[string]interface{}{"type": "integer"},
					"y2": map[string]interface{}{"type": "integer"},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
