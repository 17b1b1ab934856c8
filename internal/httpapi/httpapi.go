package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ironsheep/visual-diff-mcp/internal/baseline"
	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

// maxBodyBytes bounds a /compare request: two base64 screenshots plus
// element lists.
const maxBodyBytes = 64 << 20

// Service exposes the comparison engine and run history over HTTP.
type Service struct {
	engine *diff.Engine
	runs   baseline.RunStore
	logger *slog.Logger
}

// New creates the service. runs may be nil, in which case the /runs
// endpoints answer 404.
func New(engine *diff.Engine, runs baseline.RunStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, runs: runs, logger: logger}
}

// Router returns a chi router with the service's endpoints mounted.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the endpoints on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/compare", s.handleCompare)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleRuns)
		r.Get("/{id}", s.handleRun)
		r.Get("/{id}/images/{side}", s.handleRunImage)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// captureBody is one side of a /compare request.
type captureBody struct {
	ImageBase64 string          `json:"image_base64"`
	Elements    json.RawMessage `json:"elements"`
}

func (c captureBody) decode() (dom.Capture, error) {
	if c.ImageBase64 == "" {
		return dom.Capture{}, dom.ErrMissingImage
	}
	img, err := imaging.DecodeBase64(c.ImageBase64)
	if err != nil {
		return dom.Capture{}, err
	}
	if len(c.Elements) == 0 {
		return dom.Capture{}, dom.ErrMissingElements
	}
	elements, err := dom.DecodeElements(bytes.NewReader(c.Elements))
	if err != nil {
		return dom.Capture{}, err
	}
	return dom.Capture{Image: img, Elements: elements}, nil
}

// CompareRequest is the body for POST /compare.
type CompareRequest struct {
	Prev          captureBody `json:"prev"`
	Curr          captureBody `json:"curr"`
	IncludeImages bool        `json:"include_images"`
}

// CompareResponse is the /compare result.
type CompareResponse struct {
	Report          *diff.Report        `json:"report"`
	HighlightedPrev *imaging.CropResult `json:"highlighted_prev,omitempty"`
	HighlightedCurr *imaging.CropResult `json:"highlighted_curr,omitempty"`
}

func (s *Service) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	prev, err := req.Prev.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, "prev: "+err.Error())
		return
	}
	curr, err := req.Curr.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, "curr: "+err.Error())
		return
	}

	report, err := s.engine.Compare(r.Context(), prev, curr)
	if err != nil {
		s.logger.Error("compare failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := CompareResponse{Report: report}
	if req.IncludeImages {
		if resp.HighlightedPrev, err = imaging.EncodeBase64(report.HighlightedPrev); err == nil {
			resp.HighlightedCurr, err = imaging.EncodeBase64(report.HighlightedCurr)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not available")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.Runs(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []baseline.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Service) run(w http.ResponseWriter, r *http.Request) (*baseline.Run, bool) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not available")
		return nil, false
	}
	run, err := s.runs.Run(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, baseline.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("load run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return run, true
}

func (s *Service) handleRun(w http.ResponseWriter, r *http.Request) {
	if run, ok := s.run(w, r); ok {
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *Service) handleRunImage(w http.ResponseWriter, r *http.Request) {
	run, ok := s.run(w, r)
	if !ok {
		return
	}

	var data []byte
	switch chi.URLParam(r, "side") {
	case "prev":
		data = run.HighlightedPrev
	case "curr":
		data = run.HighlightedCurr
	default:
		writeError(w, http.StatusNotFound, "side must be prev or curr")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusNotFound, "image not stored")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
