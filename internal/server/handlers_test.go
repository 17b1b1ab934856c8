package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/visual-diff-mcp/internal/baseline"
	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var testElements = []dom.Element{
	{Tag: "button", Text: "Buy", X: 20, Y: 20, Width: 60, Height: 40, IsVisible: true, IsClickable: true},
	{Tag: "p", Text: "static", X: 100, Y: 20, Width: 80, Height: 40, IsVisible: true},
}

// createTestImageFile writes a 200x100 white PNG with the button area
// painted c and returns its path.
func createTestImageFile(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 20, 80, 60), image.NewUniform(c), image.Point{}, draw.Src)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func writeDOMFile(t *testing.T, dir, name string, elements []dom.Element) string {
	t.Helper()
	data, err := json.Marshal(elements)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestServer(t *testing.T, store baseline.Store) *Server {
	t.Helper()
	eval, err := scoring.NewEvaluator(scoring.DefaultPixel(), scoring.DefaultColor())
	if err != nil {
		t.Fatal(err)
	}
	engine, err := diff.New(diff.DefaultConfig(), eval, discard)
	if err != nil {
		t.Fatal(err)
	}
	return New(Options{Engine: engine, Store: store, Page: "home", Logger: discard})
}

// callTool runs a tools/call request and decodes the text content.
func callTool(t *testing.T, s *Server, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	return out, nil
}

func TestHandleToolsCall_VisualCompare(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, nil)

	args := map[string]interface{}{
		"prev_image":       createTestImageFile(t, dir, "prev.png", color.White),
		"prev_dom":         writeDOMFile(t, dir, "prev.json", testElements),
		"curr_image":       createTestImageFile(t, dir, "curr.png", color.Black),
		"curr_dom":         writeDOMFile(t, dir, "curr.json", testElements),
		"output_dir":       filepath.Join(dir, "out"),
		"include_images":   true,
		"include_segments": true,
	}

	out, mcpErr := callTool(t, s, "visual_compare", args)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}

	report := out["report"].(map[string]interface{})
	summary := report["summary"].(map[string]interface{})
	if summary["total_regions"] != float64(2) || summary["changed_regions"] != float64(1) {
		t.Errorf("summary: got %v", summary)
	}
	if out["highlighted_prev"] == nil || out["highlighted_curr"] == nil {
		t.Error("include_images should return both highlighted images")
	}
	segments, _ := out["segments"].([]interface{})
	if len(segments) != 1 {
		t.Errorf("segments: got %d, want 1 changed region", len(segments))
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "report.json")); err != nil {
		t.Errorf("report.json not written: %v", err)
	}
}

func TestHandleToolsCall_VisualCompareMissingDOM(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, nil)

	args := map[string]interface{}{
		"prev_image": createTestImageFile(t, dir, "prev.png", color.White),
		"prev_dom":   filepath.Join(dir, "missing.json"),
		"curr_image": createTestImageFile(t, dir, "curr.png", color.White),
		"curr_dom":   writeDOMFile(t, dir, "curr.json", testElements),
	}

	_, mcpErr := callTool(t, s, "visual_compare", args)
	if mcpErr == nil {
		t.Fatal("expected an error for a missing element file")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestHandleToolsCall_BaselineFlow(t *testing.T) {
	dir := t.TempDir()
	store, err := baseline.OpenSQLite(":memory:", baseline.WithLogger(discard))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	s := newTestServer(t, store)

	domPath := writeDOMFile(t, dir, "dom.json", testElements)
	record := func(rev string, c color.Color) {
		t.Helper()
		_, mcpErr := callTool(t, s, "baseline_record", map[string]interface{}{
			"revision": rev,
			"image":    createTestImageFile(t, dir, rev+".png", c),
			"dom":      domPath,
		})
		if mcpErr != nil {
			t.Fatalf("baseline_record %s: %v", rev, mcpErr)
		}
	}

	record("r1", color.White)

	out, mcpErr := callTool(t, s, "visual_compare_next", map[string]interface{}{})
	if mcpErr != nil {
		t.Fatalf("visual_compare_next: %v", mcpErr)
	}
	if out["status"] != "baseline_recorded" {
		t.Errorf("status: got %v, want baseline_recorded", out["status"])
	}

	record("r2", color.Black)

	out, mcpErr = callTool(t, s, "visual_compare_next", map[string]interface{}{})
	if mcpErr != nil {
		t.Fatalf("visual_compare_next: %v", mcpErr)
	}
	if out["status"] != "compared" {
		t.Fatalf("status: got %v, want compared", out["status"])
	}
	runID := out["result"].(map[string]interface{})["run_id"].(string)

	out, mcpErr = callTool(t, s, "visual_compare_next", nil)
	if mcpErr != nil {
		t.Fatalf("visual_compare_next: %v", mcpErr)
	}
	if out["status"] != "up_to_date" {
		t.Errorf("status: got %v, want up_to_date", out["status"])
	}

	out, mcpErr = callTool(t, s, "baseline_list", nil)
	if mcpErr != nil {
		t.Fatalf("baseline_list: %v", mcpErr)
	}
	if revs := out["revisions"].([]interface{}); len(revs) != 2 {
		t.Errorf("revisions: got %v", revs)
	}
	if out["last_revision"] != "r2" {
		t.Errorf("last_revision: got %v, want r2", out["last_revision"])
	}

	out, mcpErr = callTool(t, s, "visual_runs", map[string]interface{}{})
	if mcpErr != nil {
		t.Fatalf("visual_runs: %v", mcpErr)
	}
	if runs := out["runs"].([]interface{}); len(runs) != 1 {
		t.Errorf("runs: got %d, want 1", len(runs))
	}

	out, mcpErr = callTool(t, s, "visual_runs", map[string]interface{}{"id": runID})
	if mcpErr != nil {
		t.Fatalf("visual_runs by id: %v", mcpErr)
	}
	if out["id"] != runID || out["report"] == nil {
		t.Errorf("run: got %v", out)
	}
}

func TestHandleToolsCall_NoStore(t *testing.T) {
	s := newTestServer(t, nil)

	for _, name := range []string{"visual_compare_next", "baseline_list", "visual_runs"} {
		t.Run(name, func(t *testing.T) {
			if _, mcpErr := callTool(t, s, name, map[string]interface{}{}); mcpErr == nil {
				t.Error("expected an error without a baseline store")
			}
		})
	}
}

func TestHandleToolsCall_ImageCrop(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, nil)
	path := createTestImageFile(t, dir, "img.png", color.Black)

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr bool
	}{
		{"inside", map[string]interface{}{"path": path, "x1": 20, "y1": 20, "x2": 80, "y2": 60}, false},
		{"out of bounds", map[string]interface{}{"path": path, "x1": 150, "y1": 0, "x2": 250, "y2": 50}, true},
		{"missing file", map[string]interface{}{"path": filepath.Join(dir, "nope.png"), "x1": 0, "y1": 0, "x2": 1, "y2": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, mcpErr := callTool(t, s, "image_crop", tt.args)
			if (mcpErr != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", mcpErr, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if out["width"] != float64(60) || out["height"] != float64(40) {
				t.Errorf("size: got %vx%v, want 60x40", out["width"], out["height"])
			}
			if out["image_base64"] == "" {
				t.Error("image_base64 is empty")
			}
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New(Options{})

	_, mcpErr := callTool(t, s, "nonexistent_tool", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("Expected error for invalid tool")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(Options{})

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	}

	resp := s.handleRequest(context.Background(), req)
	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestMustMarshalJSON(t *testing.T) {
	if got := mustMarshalJSON(map[string]int{"a": 1}); got != `{"a":1}` {
		t.Errorf("got %s", got)
	}
	// Channels cannot be marshaled.
	if got := mustMarshalJSON(make(chan int)); got[:9] != `{"error":` {
		t.Errorf("got %s, want an error object", got)
	}
}
