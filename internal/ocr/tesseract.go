package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	vimaging "github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// minOCRHeight is the crop height below which images are upscaled before
// recognition. Tesseract loses accuracy on glyphs shorter than ~20px.
const minOCRHeight = 64

// ExtractText runs Tesseract over an in-memory image and returns the
// recognized text.
//
// Crops shorter than 64px are upscaled 2x first. The image is passed to
// Tesseract as PNG bytes, so no temporary file is written.
//
// # Errors
//
// Returns an error if the language data is unavailable, the image cannot
// be encoded, or recognition fails.
func ExtractText(img image.Image, language string) (string, error) {
	if language == "" {
		language = "eng"
	}

	if b := img.Bounds(); b.Dy() < minOCRHeight {
		img = imaging.Resize(img, b.Dx()*2, b.Dy()*2, imaging.Lanczos)
	}

	data, err := vimaging.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
