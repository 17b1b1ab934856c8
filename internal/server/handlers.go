package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/visual-diff-mcp/internal/baseline"
	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
	"github.com/ironsheep/visual-diff-mcp/internal/ocr"
	"github.com/ironsheep/visual-diff-mcp/internal/runner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "visual_compare", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Comparison
	case "visual_compare":
		return s.handleVisualCompare(ctx, args)
	case "visual_compare_next":
		return s.handleVisualCompareNext(ctx, args)

	// Baseline store
	case "baseline_record":
		return s.handleBaselineRecord(ctx, args)
	case "baseline_list":
		return s.handleBaselineList(ctx, args)
	case "visual_runs":
		return s.handleVisualRuns(ctx, args)

	// Inspection
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_ocr_region":
		return s.handleImageOCRRegion(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON marshals v to a JSON string.
// If marshaling fails, returns a JSON error object instead of panicking.
func mustMarshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal result: %s"}`, err.Error())
	}
	return string(data)
}

// loadCapture reads a screenshot and its element JSON. The screenshot is
// re-read from disk so a capture overwritten in place is never stale; the
// fresh copy then serves later inspection calls from the cache.
func (s *Server) loadCapture(imagePath, domPath string) (dom.Capture, error) {
	s.cache.Evict(imagePath)
	img, err := s.cache.Load(imagePath)
	if err != nil {
		return dom.Capture{}, err
	}

	f, err := os.Open(domPath)
	if err != nil {
		return dom.Capture{}, fmt.Errorf("failed to open element JSON: %w", err)
	}
	defer f.Close()

	elements, err := dom.DecodeElements(f)
	if err != nil {
		return dom.Capture{}, fmt.Errorf("%s: %w", domPath, err)
	}
	return dom.Capture{Image: img, Elements: elements}, nil
}

// compareResult is the visual_compare response.
type compareResult struct {
	Report          *diff.Report        `json:"report"`
	Files           *runner.Files       `json:"files,omitempty"`
	HighlightedPrev *imaging.CropResult `json:"highlighted_prev,omitempty"`
	HighlightedCurr *imaging.CropResult `json:"highlighted_curr,omitempty"`
	Segments        []segmentResult     `json:"segments,omitempty"`
}

type segmentResult struct {
	Index int                 `json:"index"`
	Tag   string              `json:"tag"`
	BBox  imaging.Region      `json:"bbox"`
	Prev  *imaging.CropResult `json:"prev"`
	Curr  *imaging.CropResult `json:"curr"`
}

// Tool handlers

func (s *Server) handleVisualCompare(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var p struct {
		PrevImage       string `json:"prev_image"`
		PrevDOM         string `json:"prev_dom"`
		CurrImage       string `json:"curr_image"`
		CurrDOM         string `json:"curr_dom"`
		OutputDir       string `json:"output_dir"`
		IncludeImages   bool   `json:"include_images"`
		IncludeSegments bool   `json:"include_segments"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}
	if s.engine == nil {
		return nil, fmt.Errorf("no comparison engine configured")
	}

	prev, err := s.loadCapture(p.PrevImage, p.PrevDOM)
	if err != nil {
		return nil, fmt.Errorf("before capture: %w", err)
	}
	curr, err := s.loadCapture(p.CurrImage, p.CurrDOM)
	if err != nil {
		return nil, fmt.Errorf("after capture: %w", err)
	}

	report, err := s.engine.Compare(ctx, prev, curr)
	if err != nil {
		return nil, err
	}

	result := &compareResult{Report: report}
	if p.OutputDir != "" {
		if result.Files, err = runner.WriteReport(p.OutputDir, report, true); err != nil {
			return nil, err
		}
	}
	if p.IncludeImages {
		if result.HighlightedPrev, err = imaging.EncodeBase64(report.HighlightedPrev); err != nil {
			return nil, err
		}
		if result.HighlightedCurr, err = imaging.EncodeBase64(report.HighlightedCurr); err != nil {
			return nil, err
		}
	}
	if p.IncludeSegments {
		if result.Segments, err = changedSegments(report); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func changedSegments(report *diff.Report) ([]segmentResult, error) {
	changed := make(map[int]bool)
	for _, r := range report.Scores.Changed() {
		changed[r.Index] = true
	}

	var out []segmentResult
	for _, seg := range report.Segments {
		if !changed[seg.Index] {
			continue
		}
		prev, err := imaging.EncodeBase64(seg.Prev)
		if err != nil {
			return nil, err
		}
		curr, err := imaging.EncodeBase64(seg.Curr)
		if err != nil {
			return nil, err
		}
		out = append(out, segmentResult{Index: seg.Index, Tag: seg.Tag, BBox: seg.BBox, Prev: prev, Curr: curr})
	}
	return out, nil
}

func (s *Server) handleVisualCompareNext(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var p struct {
		Page string `json:"page"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
	}

	r, err := s.newRunner(p.Page)
	if err != nil {
		return nil, err
	}

	res, err := r.Advance(ctx)
	switch {
	case errors.Is(err, runner.ErrBaselineRecorded):
		return map[string]interface{}{"status": "baseline_recorded"}, nil
	case errors.Is(err, baseline.ErrNoPendingPair):
		return map[string]interface{}{"status": "up_to_date"}, nil
	case err != nil:
		return nil, err
	}

	if s.outputDir != "" {
		dir, err := res.Dir(s.outputDir)
		if err != nil {
			return nil, err
		}
		if _, err := runner.WriteReport(dir, res.Report, true); err != nil {
			return nil, err
		}
	}
	return map[string]interface{}{
		"status": "compared",
		"result": res,
	}, nil
}

func (s *Server) handleBaselineRecord(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var p struct {
		Revision string `json:"revision"`
		Page     string `json:"page"`
		Image    string `json:"image"`
		DOM      string `json:"dom"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("no baseline store configured")
	}
	if p.Revision == "" {
		return nil, fmt.Errorf("revision is required")
	}
	if p.Page == "" {
		p.Page = s.page
	}

	capture, err := s.loadCapture(p.Image, p.DOM)
	if err != nil {
		return nil, err
	}
	if err := s.store.Record(ctx, p.Revision, p.Page, capture); err != nil {
		return nil, err
	}

	revs, err := s.store.Revisions(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"revision":  p.Revision,
		"page":      p.Page,
		"elements":  len(capture.Elements),
		"revisions": len(revs),
	}, nil
}

func (s *Server) handleBaselineList(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no baseline store configured")
	}
	revs, err := s.store.Revisions(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.store.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	if revs == nil {
		revs = []string{}
	}
	return map[string]interface{}{
		"revisions":     revs,
		"last_revision": state.LastRevision,
	}, nil
}

func (s *Server) handleVisualRuns(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var p struct {
		ID    string `json:"id"`
		Limit int    `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}

	runs, ok := s.store.(baseline.RunStore)
	if !ok {
		return nil, fmt.Errorf("the configured baseline store keeps no run history")
	}
	if p.ID != "" {
		return runs.Run(ctx, p.ID)
	}
	list, err := runs.Runs(ctx, p.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"runs": list}, nil
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var p struct {
		Path string `json:"path"`
		X1   int    `json:"x1"`
		Y1   int    `json:"y1"`
		X2   int    `json:"x2"`
		Y2   int    `json:"y2"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	crop, err := imaging.CropRegion(img, imaging.Region{X1: p.X1, Y1: p.Y1, X2: p.X2, Y2: p.Y2})
	if err != nil {
		return nil, err
	}
	return imaging.EncodeBase64(crop)
}

func (s *Server) handleImageOCRRegion(args json.RawMessage) (interface{}, error) {
	var p struct {
		Path string `json:"path"`
		X1   int    `json:"x1"`
		Y1   int    `json:"y1"`
		X2   int    `json:"x2"`
		Y2   int    `json:"y2"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	region := imaging.Region{X1: p.X1, Y1: p.Y1, X2: p.X2, Y2: p.Y2}
	crop, err := imaging.CropRegion(img, region)
	if err != nil {
		return nil, err
	}
	text, err := ocr.ExtractText(crop, s.language)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"region": region,
		"text":   text,
	}, nil
}
