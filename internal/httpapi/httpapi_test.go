package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ironsheep/visual-diff-mcp/internal/baseline"
	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
	"github.com/ironsheep/visual-diff-mcp/internal/scoring"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const elementsJSON = `[
	{"tag":"button","text":"Buy","x":20,"y":20,"width":60,"height":40,"is_visible":true,"is_clickable":true},
	{"tag":"p","text":"static","x":100,"y":20,"width":80,"height":40,"is_visible":true}
]`

func encodedCapture(t *testing.T, fill color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 20, 80, 60), image.NewUniform(fill), image.Point{}, draw.Src)
	data, err := imaging.EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(data)
}

func newTestService(t *testing.T, runs baseline.RunStore) *httptest.Server {
	t.Helper()
	eval, err := scoring.NewEvaluator(scoring.DefaultPixel(), scoring.DefaultColor())
	if err != nil {
		t.Fatal(err)
	}
	engine, err := diff.New(diff.DefaultConfig(), eval, discard)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(New(engine, runs, discard).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestService(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", resp.StatusCode)
	}
}

func TestCompare(t *testing.T) {
	srv := newTestService(t, nil)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantChange int
	}{
		{
			name: "button changed",
			body: map[string]interface{}{
				"prev":           map[string]interface{}{"image_base64": encodedCapture(t, color.White), "elements": json.RawMessage(elementsJSON)},
				"curr":           map[string]interface{}{"image_base64": encodedCapture(t, color.Black), "elements": json.RawMessage(elementsJSON)},
				"include_images": true,
			},
			wantStatus: http.StatusOK,
			wantChange: 1,
		},
		{
			name: "missing elements",
			body: map[string]interface{}{
				"prev": map[string]interface{}{"image_base64": encodedCapture(t, color.White)},
				"curr": map[string]interface{}{"image_base64": encodedCapture(t, color.White), "elements": json.RawMessage(elementsJSON)},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad base64",
			body: map[string]interface{}{
				"prev": map[string]interface{}{"image_base64": "%%%", "elements": json.RawMessage(elementsJSON)},
				"curr": map[string]interface{}{"image_base64": encodedCapture(t, color.White), "elements": json.RawMessage(elementsJSON)},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _ := json.Marshal(tt.body)
			resp, err := http.Post(srv.URL+"/compare", "application/json", bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var out struct {
				Report struct {
					Summary diff.Summary `json:"summary"`
				} `json:"report"`
				HighlightedPrev *imaging.CropResult `json:"highlighted_prev"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out.Report.Summary.ChangedRegions != tt.wantChange {
				t.Errorf("changed: got %d, want %d", out.Report.Summary.ChangedRegions, tt.wantChange)
			}
			if out.HighlightedPrev == nil || out.HighlightedPrev.Width != 200 {
				t.Error("highlighted image missing")
			}
		})
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	store, err := baseline.OpenSQLite(":memory:", baseline.WithLogger(discard))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run := &baseline.Run{
		Page:            "home",
		PrevRevision:    "a",
		CurrRevision:    "b",
		Summary:         diff.Summary{TotalRegions: 2, ChangedRegions: 1, ChangePercent: 50},
		Report:          json.RawMessage(`{"scores":[]}`),
		HighlightedPrev: []byte("png-bytes"),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	srv := newTestService(t, store)

	tests := []struct {
		path       string
		wantStatus int
		wantType   string
	}{
		{"/runs", http.StatusOK, "application/json"},
		{"/runs?limit=0", http.StatusBadRequest, "application/json"},
		{"/runs/" + run.ID, http.StatusOK, "application/json"},
		{"/runs/unknown", http.StatusNotFound, "application/json"},
		{"/runs/" + run.ID + "/images/prev", http.StatusOK, "image/png"},
		{"/runs/" + run.ID + "/images/curr", http.StatusNotFound, "application/json"},
		{"/runs/" + run.ID + "/images/side", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.wantType {
				t.Errorf("content type: got %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestRuns_NoHistory(t *testing.T) {
	srv := newTestService(t, nil)

	resp, err := http.Get(srv.URL + "/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
