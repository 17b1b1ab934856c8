package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ironsheep/visual-diff-mcp/internal/baseline"
	"github.com/ironsheep/visual-diff-mcp/internal/config"
	"github.com/ironsheep/visual-diff-mcp/internal/diff"
	"github.com/ironsheep/visual-diff-mcp/internal/dom"
	"github.com/ironsheep/visual-diff-mcp/internal/httpapi"
	"github.com/ironsheep/visual-diff-mcp/internal/runner"
	"github.com/ironsheep/visual-diff-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `visual-diff-mcp - detect and localize visual changes between UI captures

Usage:
  visual-diff-mcp [serve]                                   MCP server on stdin/stdout
  visual-diff-mcp compare [-out dir] prev.png prev_dom.json curr.png curr_dom.json
  visual-diff-mcp record [-page name] revision image.png dom.json
  visual-diff-mcp next [-page name]                         compare the next pending revision pair
  visual-diff-mcp serve-http [-addr :8080]                  HTTP API

Every subcommand accepts -config path (default $VISUAL_DIFF_CONFIG).

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Environment variables:
  VISUAL_DIFF_LOG_LEVEL=debug    Log level (debug, info, warn, error)
  VISUAL_DIFF_CONFIG=path        YAML configuration file
  VISUAL_DIFF_*                  Individual overrides, e.g. VISUAL_DIFF_LPIPS_THRESH
`

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("visual-diff-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Print(usage)
			return
		}
	}

	// Logging goes to stderr; stdout carries MCP or command output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("VISUAL_DIFF_LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, args []string, logger *slog.Logger) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("VISUAL_DIFF_CONFIG"), "YAML configuration file")
	out := fs.String("out", "", "output directory for report.json and highlighted images")
	page := fs.String("page", "", "page name")
	addr := fs.String("addr", "", "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *page != "" {
		cfg.Page = *page
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *out != "" {
		cfg.OutputDir = *out
	}

	logger.Debug("starting", "command", cmd, "version", Version, "commit", GitCommit)

	switch cmd {
	case "serve":
		return serveMCP(ctx, cfg, logger)
	case "compare":
		return compare(ctx, cfg, fs.Args(), *out != "", logger)
	case "record":
		return record(ctx, cfg, fs.Args(), logger)
	case "next":
		return next(ctx, cfg, logger)
	case "serve-http":
		return serveHTTP(ctx, cfg, logger)
	default:
		return fmt.Errorf("unknown command %q, see --help", cmd)
	}
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*diff.Engine, error) {
	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	eval, err := cfg.Evaluator()
	if err != nil {
		return nil, err
	}
	return diff.New(ecfg, eval, logger)
}

func openStore(cfg *config.Config, logger *slog.Logger) (baseline.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreFiles:
		return baseline.OpenFiles(cfg.Store.Path, logger)
	default:
		return baseline.OpenSQLite(cfg.Store.Path, baseline.WithMkdirAll(), baseline.WithLogger(logger))
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveMCP(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("visual diff MCP server", "version", Version, "store", cfg.Store.Driver)
	srv := server.New(server.Options{
		Engine:    engine,
		Store:     store,
		Page:      cfg.Page,
		OutputDir: cfg.OutputDir,
		Language:  cfg.Scoring.Similarity.Language,
		Logger:    logger,
	})
	return srv.Run(ctx)
}

func compare(ctx context.Context, cfg *config.Config, args []string, write bool, logger *slog.Logger) error {
	if len(args) != 4 {
		return errors.New("compare needs prev.png prev_dom.json curr.png curr_dom.json")
	}
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	prev, err := dom.LoadCapture(args[0], args[1])
	if err != nil {
		return err
	}
	curr, err := dom.LoadCapture(args[2], args[3])
	if err != nil {
		return err
	}

	report, err := engine.Compare(ctx, prev, curr)
	if err != nil {
		return err
	}
	if write {
		files, err := runner.WriteReport(cfg.OutputDir, report, true)
		if err != nil {
			return err
		}
		logger.Info("report written", "report", files.Report, "segments", len(files.Segments))
	}
	return printJSON(report)
}

func record(ctx context.Context, cfg *config.Config, args []string, logger *slog.Logger) error {
	if len(args) != 3 {
		return errors.New("record needs revision image.png dom.json")
	}
	capture, err := dom.LoadCapture(args[1], args[2])
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Record(ctx, args[0], cfg.Page, capture); err != nil {
		return err
	}
	logger.Info("capture recorded", "revision", args[0], "page", cfg.Page, "elements", len(capture.Elements))
	return nil
}

func next(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := runner.New(store, engine, cfg.Page, logger).Advance(ctx)
	switch {
	case errors.Is(err, runner.ErrBaselineRecorded):
		logger.Info("baseline recorded, nothing to compare yet")
		return nil
	case errors.Is(err, baseline.ErrNoPendingPair):
		logger.Info("up to date, no pending revision pair")
		return nil
	case err != nil:
		return err
	}

	dir, err := res.Dir(cfg.OutputDir)
	if err != nil {
		return err
	}
	if _, err := runner.WriteReport(dir, res.Report, true); err != nil {
		return err
	}
	logger.Info("report written", "dir", dir)
	return printJSON(res)
}

func serveHTTP(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, _ := store.(baseline.RunStore)
	return httpapi.New(engine, runs, logger).ListenAndServe(ctx, cfg.HTTP.Addr)
}
