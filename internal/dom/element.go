package dom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

var (
	// ErrMissingImage is returned when a capture has no screenshot.
	ErrMissingImage = errors.New("capture has no image")

	// ErrMissingElements is returned when a capture has no element list.
	ErrMissingElements = errors.New("capture has no element list")
)

// Element is one on-screen node as recorded by the capture step.
//
// Coordinates are page pixels of the element's bounding client rect.
// Numeric fields that are absent in the source JSON are zero, which routes
// the element to the size filter instead of failing the decode.
type Element struct {
	Tag         string   `json:"tag"`
	Text        string   `json:"text"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ID          string   `json:"id,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	IsVisible   bool     `json:"is_visible"`
	IsClickable bool     `json:"is_clickable"`
	Children    []string `json:"children,omitempty"`
}

// Box returns the element's bounding box as a region.
func (e Element) Box() imaging.Region {
	return imaging.RegionFromBox(e.X, e.Y, e.Width, e.Height)
}

// rawElement mirrors Element with loose types: capture tools emit floats
// for coordinates, numbers or strings for ids, and null for absent values.
type rawElement struct {
	Tag         string            `json:"tag"`
	Text        *string           `json:"text"`
	X           *float64          `json:"x"`
	Y           *float64          `json:"y"`
	Width       *float64          `json:"width"`
	Height      *float64          `json:"height"`
	ID          json.RawMessage   `json:"id"`
	ParentID    json.RawMessage   `json:"parent_id"`
	IsVisible   *bool             `json:"is_visible"`
	IsClickable *bool             `json:"is_clickable"`
	Children    []json.RawMessage `json:"children"`
}

// UnmarshalJSON decodes an element, tolerating floats, nulls and numeric ids.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw rawElement
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("element id: %w", err)
	}
	parentID, err := decodeID(raw.ParentID)
	if err != nil {
		return fmt.Errorf("element parent_id: %w", err)
	}

	*e = Element{
		Tag:         raw.Tag,
		X:           truncate(raw.X),
		Y:           truncate(raw.Y),
		Width:       truncate(raw.Width),
		Height:      truncate(raw.Height),
		ID:          id,
		ParentID:    parentID,
		IsVisible:   true,
		IsClickable: raw.IsClickable != nil && *raw.IsClickable,
	}
	if raw.Text != nil {
		e.Text = *raw.Text
	}
	if raw.IsVisible != nil {
		e.IsVisible = *raw.IsVisible
	}
	for _, c := range raw.Children {
		cid, err := decodeID(c)
		if err != nil {
			return fmt.Errorf("element children: %w", err)
		}
		if cid != "" {
			e.Children = append(e.Children, cid)
		}
	}
	return nil
}

func truncate(v *float64) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

// decodeID accepts a JSON string, number or null.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

// DecodeElements reads a JSON array of elements.
func DecodeElements(r io.Reader) ([]Element, error) {
	var elements []Element
	if err := json.NewDecoder(r).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to decode elements: %w", err)
	}
	if elements == nil {
		return nil, ErrMissingElements
	}
	return elements, nil
}

// Capture is one side of a comparison: a screenshot and the element list
// recorded alongside it.
type Capture struct {
	Image    image.Image
	Elements []Element
}

// Validate reports a fatal input error when the image or the element list
// is absent. An empty but present element list is valid.
func (c Capture) Validate() error {
	if c.Image == nil {
		return ErrMissingImage
	}
	if c.Elements == nil {
		return ErrMissingElements
	}
	return nil
}

// HasIDs reports whether every element carries a stable id.
func (c Capture) HasIDs() bool {
	if len(c.Elements) == 0 {
		return false
	}
	for _, e := range c.Elements {
		if e.ID == "" {
			return false
		}
	}
	return true
}

// LoadCapture reads a screenshot and its element JSON from disk.
func LoadCapture(imagePath, domPath string) (Capture, error) {
	img, err := imaging.LoadFile(imagePath)
	if err != nil {
		return Capture{}, fmt.Errorf("load capture image %s: %w", imagePath, err)
	}

	f, err := os.Open(domPath)
	if err != nil {
		return Capture{}, fmt.Errorf("load capture elements: %w", err)
	}
	defer f.Close()

	elements, err := DecodeElements(f)
	if err != nil {
		return Capture{}, fmt.Errorf("load capture elements %s: %w", domPath, err)
	}
	return Capture{Image: img, Elements: elements}, nil
}
