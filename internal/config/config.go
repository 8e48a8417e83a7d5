package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	DefaultDBPath      = "cogimport.db"
	DefaultWorkers     = 1

	// DefaultMinTableAccuracy is the extraction-accuracy gate below which a
	// table is discarded rather than mined for numbers. The stricter intake
	// sites run with 80.
	DefaultMinTableAccuracy = 50.0
)

// Thresholds groups the hand-tuned numeric bands used by the extractors so
// they can be tested and tuned without touching extraction logic.
type Thresholds struct {
	MinTableAccuracy float64 // percent, tables under this emit nothing

	StandardMin   float64 // plausibility band for standard scores
	StandardMax   float64
	PercentileMin float64
	PercentileMax float64

	// Reconciliation prefers standard scores inside this narrower band when
	// candidates are otherwise tied.
	StandardPlausibleLow  float64
	StandardPlausibleHigh float64

	// Corrupted-cell guard: anything outside this absolute range is treated
	// as a concatenated-digits artifact, not a score.
	AbsoluteMin float64
	AbsoluteMax float64
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTableAccuracy:      DefaultMinTableAccuracy,
		StandardMin:           0,
		StandardMax:           200,
		PercentileMin:         0,
		PercentileMax:         100,
		StandardPlausibleLow:  40,
		StandardPlausibleHigh: 160,
		AbsoluteMin:           -100,
		AbsoluteMax:           1000,
	}
}

// Config holds all configuration for the report import engine.
type Config struct {
	// Input configuration
	PDFPath         string // single report to import
	PDFDirectory    string // or a directory batch
	CalibrationPath string // screener bounding-box calibration file

	// Store configuration
	DBPath string

	// Application configuration
	Version     string
	LogLevel    string
	MaxFileSize int64
	Workers     int
	Reparse     bool // fill missing sections for already-imported patients

	Thresholds Thresholds
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:      DefaultDBPath,
		Version:     "1.0.0",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
		Workers:     DefaultWorkers,
		Thresholds:  DefaultThresholds(),
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("COGIMPORT")
	viper.AutomaticEnv()

	viper.SetDefault("pdf", cfg.PDFPath)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("calibration", cfg.CalibrationPath)
	viper.SetDefault("db", cfg.DBPath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("minaccuracy", cfg.Thresholds.MinTableAccuracy)
	viper.SetDefault("reparse", cfg.Reparse)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("pdf", cfg.PDFPath, "Path to a single report PDF to import")
	pflag.String("dir", cfg.PDFDirectory, "Directory of report PDFs to import as a batch")
	pflag.String("calibration", cfg.CalibrationPath, "Path to the screener checkbox calibration file (JSON)")
	pflag.String("db", cfg.DBPath, "Path to the SQLite database file")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("workers", cfg.Workers, "Concurrent document workers for batch imports")
	pflag.Float64("minaccuracy", cfg.Thresholds.MinTableAccuracy, "Minimum table extraction accuracy (percent) to accept a table")
	pflag.Bool("reparse", cfg.Reparse, "Re-run extraction for already-imported patients, filling only missing sections")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("pdf", pflag.Lookup("pdf"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("calibration", pflag.Lookup("calibration"))
	_ = viper.BindPFlag("db", pflag.Lookup("db"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("minaccuracy", pflag.Lookup("minaccuracy"))
	_ = viper.BindPFlag("reparse", pflag.Lookup("reparse"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nCognitive test report importer - extracts structured records from report PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --pdf report.pdf                        # import one report\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir /data/reports --workers 4         # batch import\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --pdf report.pdf --reparse              # fill missing sections\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  COGIMPORT_PDF          Report PDF path\n")
		fmt.Fprintf(os.Stderr, "  COGIMPORT_DIR          Report directory\n")
		fmt.Fprintf(os.Stderr, "  COGIMPORT_CALIBRATION  Calibration file path\n")
		fmt.Fprintf(os.Stderr, "  COGIMPORT_DB           SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  COGIMPORT_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  COGIMPORT_MINACCURACY  Minimum table accuracy\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.PDFPath = viper.GetString("pdf")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.CalibrationPath = viper.GetString("calibration")
	cfg.DBPath = viper.GetString("db")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Workers = viper.GetInt("workers")
	cfg.Thresholds.MinTableAccuracy = viper.GetFloat64("minaccuracy")
	cfg.Reparse = viper.GetBool("reparse")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PDFPath == "" && c.PDFDirectory == "" {
		return errors.New("one of --pdf or --dir is required")
	}
	if c.PDFPath != "" && c.PDFDirectory != "" {
		return errors.New("--pdf and --dir are mutually exclusive")
	}

	if c.DBPath == "" {
		return errors.New("database path cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	if c.Thresholds.MinTableAccuracy < 0 || c.Thresholds.MinTableAccuracy > 100 {
		return fmt.Errorf("minimum table accuracy must be in [0,100], got %v", c.Thresholds.MinTableAccuracy)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}
