package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"visual_compare",
		"visual_compare_next",
		"baseline_record",
		"baseline_list",
		"visual_runs",
		"image_crop",
		"image_ocr_region",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing 'properties' field")
			}

			// Every required field must be a declared property.
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required field %q is not a property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := []struct {
		tool string
		want []string
	}{
		{"visual_compare", []string{"prev_image", "prev_dom", "curr_image", "curr_dom"}},
		{"baseline_record", []string{"revision", "image", "dom"}},
		{"image_crop", []string{"path", "x1", "y1", "x2", "y2"}},
		{"image_ocr_region", []string{"path", "x1", "y1", "x2", "y2"}},
		{"visual_compare_next", nil},
		{"baseline_list", nil},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			required, _ := toolMap[tt.tool].InputSchema["required"].([]string)
			if len(required) != len(tt.want) {
				t.Fatalf("required: got %v, want %v", required, tt.want)
			}
			for i := range required {
				if required[i] != tt.want[i] {
					t.Errorf("required[%d]: got %s, want %s", i, required[i], tt.want[i])
				}
			}
		})
	}
}
