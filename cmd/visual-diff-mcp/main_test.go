package main

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const elementsJSON = `[{"tag":"button","text":"Buy","x":20,"y":20,"width":60,"height":40,"is_visible":true,"is_clickable":true}]`

func writeCapture(t *testing.T, dir, name string, fill color.Color) (png, domPath string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 20, 80, 60), image.NewUniform(fill), image.Point{}, draw.Src)

	png = filepath.Join(dir, name+".png")
	if err := imgio.Save(png, img, imgio.PNGEncoder()); err != nil {
		t.Fatal(err)
	}
	domPath = filepath.Join(dir, name+".json")
	if err := os.WriteFile(domPath, []byte(elementsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return png, domPath
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRun_Compare(t *testing.T) {
	dir := t.TempDir()
	prevPNG, prevDOM := writeCapture(t, dir, "prev", color.White)
	currPNG, currDOM := writeCapture(t, dir, "curr", color.Black)
	out := filepath.Join(dir, "out")

	// Keep the JSON report off the test output.
	stdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = stdout }()

	err := run(context.Background(), []string{"compare", "-out", out, prevPNG, prevDOM, currPNG, currDOM}, discard)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "report.json")); err != nil {
		t.Errorf("report.json not written: %v", err)
	}
}

func TestRun_RecordAndNext(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := "store:\n  driver: files\n  path: " + filepath.Join(dir, "baseline") + "\noutput_dir: " + filepath.Join(dir, "out") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = stdout }()

	ctx := context.Background()
	for i, fill := range []color.Color{color.White, color.Black} {
		rev := []string{"r1", "r2"}[i]
		png, domPath := writeCapture(t, dir, rev, fill)
		if err := run(ctx, []string{"record", "-config", cfgPath, rev, png, domPath}, discard); err != nil {
			t.Fatalf("record %s: %v", rev, err)
		}
	}

	if err := run(ctx, []string{"next", "-config", cfgPath}, discard); err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "home", "r1_r2", "report.json")); err != nil {
		t.Errorf("report not written: %v", err)
	}

	// Nothing left to compare is not an error.
	if err := run(ctx, []string{"next", "-config", cfgPath}, discard); err != nil {
		t.Errorf("second next: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"compare arity", []string{"compare", "a.png"}},
		{"record arity", []string{"record", "r1"}},
		{"missing config", []string{"next", "-config", "/nonexistent/config.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.args, discard); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
