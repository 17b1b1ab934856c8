package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// HTTPService calls a remote model service that scores a pair of images.
//
// The request body is
//
//	{"image_a": "<base64 PNG>", "image_b": "<base64 PNG>"}
//
// and the response body is {"score": <float>}. The same client serves both
// the perceptual distance and the semantic similarity endpoint; only the
// URL differs.
type HTTPService struct {
	URL     string
	Client  *http.Client
	MaxSide int // crops larger than this are downscaled before upload; 0 disables
}

// NewHTTPService creates a client for the scoring service at url.
func NewHTTPService(url string, timeout time.Duration, maxSide int) *HTTPService {
	return &HTTPService{
		URL:     url,
		Client:  &http.Client{Timeout: timeout},
		MaxSide: maxSide,
	}
}

type scoreRequest struct {
	ImageA string `json:"image_a"`
	ImageB string `json:"image_b"`
}

type scoreResponse struct {
	Score *float64 `json:"score"`
	Error string   `json:"error,omitempty"`
}

// Distance implements DistanceScorer.
func (s *HTTPService) Distance(ctx context.Context, a, b image.Image) (float64, error) {
	return s.score(ctx, a, b)
}

// Similarity implements SimilarityScorer.
func (s *HTTPService) Similarity(ctx context.Context, a, b image.Image) (float64, error) {
	return s.score(ctx, a, b)
}

func (s *HTTPService) score(ctx context.Context, a, b image.Image) (float64, error) {
	encA, err := imaging.EncodeBase64(imaging.Downscale(a, s.MaxSide))
	if err != nil {
		return 0, err
	}
	encB, err := imaging.EncodeBase64(imaging.Downscale(b, s.MaxSide))
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(scoreRequest{ImageA: encA.ImageBase64, ImageB: encB.ImageBase64})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s returned %d: %s", s.URL, resp.StatusCode, truncateBody(data))
	}

	var out scoreResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return 0, fmt.Errorf("%s: %s", s.URL, out.Error)
	}
	if out.Score == nil {
		return 0, fmt.Errorf("%s: response has no score", s.URL)
	}
	return *out.Score, nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
