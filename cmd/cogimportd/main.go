package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/extract"
	"github.com/cognimed/cogimport/internal/importer"
	"github.com/cognimed/cogimport/internal/report"
	"github.com/cognimed/cogimport/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cal *extract.Calibration
	if cfg.CalibrationPath != "" {
		var err error
		cal, err = extract.LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}
		logger.Debug("calibration loaded", "boxes", len(cal.Boxes))
	} else {
		logger.Warn("no calibration file configured, screener section will be skipped")
	}

	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	imp := importer.New(cfg, cal, st, logger)

	if cfg.PDFPath != "" {
		result, err := imp.ImportFile(ctx, cfg.PDFPath)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	}

	batch, err := imp.ImportDirectory(ctx, cfg.PDFDirectory, cfg.Workers)
	if err != nil {
		return err
	}
	for _, result := range batch.Results {
		printResult(result)
	}
	for path, ferr := range batch.Failed {
		logger.Error("document failed", "path", path, "error", ferr)
	}
	if len(batch.Failed) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(batch.Failed), len(batch.Failed)+len(batch.Results))
	}
	return nil
}

func printResult(result *report.ImportResult) {
	if result.Skipped {
		fmt.Printf("%s: patient %s already imported, skipped\n", result.Path, result.PatientID)
		return
	}
	fmt.Printf("%s: patient %s imported\n", result.Path, result.PatientID)
	for _, s := range result.Sections {
		fmt.Printf("  %s: %s", s.Section, s.State)
		if s.State == report.StateImported {
			fmt.Printf(" (%d rows)", s.Rows)
		}
		fmt.Println()
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("cogimportd %s\n", version)
	fmt.Printf("  build time: %s\n", buildTime)
	fmt.Printf("  git commit: %s\n", gitCommit)
}
