package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains an encoded crop, ready for a JSON response.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropRegion extracts r from img as a new NRGBA image whose bounds start at
// (0,0). The source image is never modified.
func CropRegion(img image.Image, r Region) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("crop %s: nil image", r)
	}
	if err := ValidateRegion(r, img.Bounds(), 1); err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	return imaging.Crop(img, r.Rect()), nil
}

// Clone returns an NRGBA copy of img.
func Clone(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes img as a base64 PNG crop result.
func EncodeBase64(img image.Image) (*CropResult, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &CropResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// DecodeBase64 decodes a base64 encoded PNG, JPEG or GIF image.
func DecodeBase64(s string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Downscale shrinks img so that neither side exceeds maxSide, keeping the
// aspect ratio. Images already within the limit are returned unchanged.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, maxSide, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxSide, imaging.Lanczos)
}
