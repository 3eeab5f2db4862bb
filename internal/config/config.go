// Package config loads the server configuration from an optional YAML file
// and OMR_MCP_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/omr-tools-mcp/internal/classify"
	"github.com/ironsheep/omr-tools-mcp/internal/detection"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/marks"
	"github.com/ironsheep/omr-tools-mcp/internal/ocr"
	"github.com/ironsheep/omr-tools-mcp/internal/pipeline"
)

// Environment variables read by Load.
const (
	EnvConfig         = "OMR_MCP_CONFIG"
	EnvWorkers        = "OMR_MCP_WORKERS"
	EnvPageTimeout    = "OMR_MCP_PAGE_TIMEOUT"
	EnvOCR            = "OMR_MCP_OCR"
	EnvOCRLanguage    = "OMR_MCP_OCR_LANG"
	EnvTessdataPrefix = "OMR_MCP_TESSDATA_PREFIX"
	EnvDeskew         = "OMR_MCP_DESKEW"
	EnvLogLevel       = "OMR_MCP_LOG_LEVEL"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	// Worker pool
	Workers     int           `yaml:"workers"`
	PageTimeout time.Duration `yaml:"page_timeout"`

	Deskew bool `yaml:"deskew"`

	OCR OCRConfig `yaml:"ocr"`

	Detection detection.Config         `yaml:"detection"`
	Checkbox  detection.CheckboxConfig `yaml:"checkbox"`
	Marks     MarksConfig              `yaml:"marks"`
	Regions   classify.RegionOverrides `yaml:"regions"`

	Overlay imaging.OverlayStyle `yaml:"overlay"`
}

type OCRConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`

	// DigitsInColumnZero reads question numbers from the first column
	// instead of the header row.
	DigitsInColumnZero bool `yaml:"digits_in_column_zero"`
}

type MarksConfig struct {
	RowLabels      []string         `yaml:"row_labels"`
	Thresholds     marks.Thresholds `yaml:"thresholds"`
	MaxForwardJump int              `yaml:"max_forward_jump"`
	FirstQuestion  int              `yaml:"first_question"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:    "info",
		PageTimeout: 2 * time.Minute,
		OCR: OCRConfig{
			Enabled:  true,
			Language: "eng",
		},
		Detection: detection.DefaultConfig(),
		Overlay:   imaging.DefaultOverlayStyle(),
		Checkbox:  detection.DefaultCheckboxConfig(),
		Marks: MarksConfig{
			Thresholds:     marks.DefaultThresholds(),
			MaxForwardJump: marks.DefaultMaxForwardJump,
			FirstQuestion:  1,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// OMR_MCP_CONFIG (if set), then the other environment variables.
func Load() (Config, error) {
	return LoadFile(os.Getenv(EnvConfig))
}

// LoadFile is Load with an explicit file path. An empty path skips the
// file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg = cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) applyEnv() Config {
	c.LogLevel = envOr(EnvLogLevel, c.LogLevel)
	c.Workers = envInt(EnvWorkers, c.Workers)
	c.PageTimeout = envDuration(EnvPageTimeout, c.PageTimeout)
	c.Deskew = envBool(EnvDeskew, c.Deskew)
	c.OCR.Enabled = envBool(EnvOCR, c.OCR.Enabled)
	c.OCR.Language = envOr(EnvOCRLanguage, c.OCR.Language)
	c.OCR.TessdataPrefix = envOr(EnvTessdataPrefix, c.OCR.TessdataPrefix)
	return c
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.PageTimeout < 0 {
		return fmt.Errorf("page_timeout must not be negative, got %s", c.PageTimeout)
	}
	if c.OCR.Enabled && c.OCR.Language == "" {
		return fmt.Errorf("ocr.language is required when OCR is enabled")
	}
	if r := c.Detection.MinTableAreaRatio; r < 0 || r >= 1 {
		return fmt.Errorf("detection.min_table_area_ratio must be in [0, 1), got %g", r)
	}
	if c.Detection.MinCellSize < 0 || c.Detection.MaxTableGap < 0 {
		return fmt.Errorf("detection sizes must not be negative")
	}
	th := c.Marks.Thresholds
	if th.MarkThreshold <= 0 || th.MarkThreshold > 1 {
		return fmt.Errorf("marks.thresholds.mark_threshold must be in (0, 1], got %g", th.MarkThreshold)
	}
	if th.DensityMargin < 0 || th.DensityMargin > 1 {
		return fmt.Errorf("marks.thresholds.density_margin must be in [0, 1], got %g", th.DensityMargin)
	}
	if c.Marks.MaxForwardJump < 0 {
		return fmt.Errorf("marks.max_forward_jump must not be negative")
	}
	return nil
}

// Level returns the parsed log level, or Info when it does not parse.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// TesseractOptions returns the OCR backend options.
func (c Config) TesseractOptions() ocr.TesseractOptions {
	return ocr.TesseractOptions{
		Language:       c.OCR.Language,
		TessdataPrefix: c.OCR.TessdataPrefix,
	}
}

// PipelineOptions maps the configuration onto the processor options.
func (c Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Detection = c.Detection
	opts.Classify = classify.Options{
		Checkbox:           c.Checkbox,
		Regions:            c.Regions,
		DigitsInColumnZero: c.OCR.DigitsInColumnZero,
	}
	opts.Marks = marks.Options{
		RowLabels:      c.Marks.RowLabels,
		Thresholds:     c.Marks.Thresholds,
		MaxForwardJump: c.Marks.MaxForwardJump,
	}
	opts.Deskew = c.Deskew
	opts.Workers = c.Workers
	opts.PageTimeout = c.PageTimeout
	opts.FirstQuestion = c.Marks.FirstQuestion
	return opts
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
