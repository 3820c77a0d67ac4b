package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength        = 4096 // PATH_MAX on Linux
	MaxURLLength         = 2048 // Browser limit
	MaxPageSizeLength    = 10   // "letter", "a4", "legal"
	MaxOrientationLength = 10   // "portrait", "landscape"
	MaxDurationLength    = 20   // "1m30s"
	MaxLogLevelLength    = 10   // "warning"
)

// configDirName is the directory under os.UserConfigDir searched by name.
const configDirName = "go-html2pdf"

// Config is the YAML configuration of the html2pdf command.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Page   PageConfig   `yaml:"page"`
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Used when no input argument is given
	CSS        string `yaml:"css"`        // Stylesheet injected into every document
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Local directory or gs://bucket/prefix (empty = next to source)
}

// PageConfig defines PDF page geometry. Unset margins fall back to Margin.
type PageConfig struct {
	Size         string   `yaml:"size"`        // "letter", "a4", "legal" (default: "a4")
	Orientation  string   `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin       *float64 `yaml:"margin"`      // inches, all sides (default: 0.5)
	MarginTop    *float64 `yaml:"marginTop"`
	MarginLeft   *float64 `yaml:"marginLeft"`
	MarginBottom *float64 `yaml:"marginBottom"`
	MarginRight  *float64 `yaml:"marginRight"`
	BaseURL      string   `yaml:"baseURL"`
}

// RenderConfig defines scheduling options.
type RenderConfig struct {
	Workers           int     `yaml:"workers"`           // 0 = pool size
	PoolSize          int     `yaml:"poolSize"`          // 0 = GOMAXPROCS, capped
	Timeout           string  `yaml:"timeout"`           // Go duration, per document
	Retries           int     `yaml:"retries"`           // acquire attempts
	RetryDelay        string  `yaml:"retryDelay"`        // Go duration, per attempt
	CreateDirectories *bool   `yaml:"createDirectories"` // default: true
	Verify            bool    `yaml:"verify"`
	RateLimit         float64 `yaml:"rateLimit"` // documents per second, 0 = unlimited
	RateBurst         int     `yaml:"rateBurst"`
}

// LogConfig defines diagnostic output.
type LogConfig struct {
	Level  string `yaml:"level"`  // logrus level name (default: "error")
	Format string `yaml:"format"` // "text" or "json" (default: "text")
}

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Validate checks field lengths, enums and ranges.
// Called automatically by LoadConfig, but available for configs built in code.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"input.css", c.Input.CSS, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"page.baseURL", c.Page.BaseURL, MaxURLLength},
		{"render.timeout", c.Render.Timeout, MaxDurationLength},
		{"render.retryDelay", c.Render.RetryDelay, MaxDurationLength},
		{"log.level", c.Log.Level, MaxLogLevelLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.Page.Size != "" {
		if _, err := html2pdf.PageSizeByName(c.Page.Size); err != nil {
			return fmt.Errorf("%w: page.size %q (must be letter, a4, or legal)", ErrInvalidValue, c.Page.Size)
		}
	}
	if _, err := html2pdf.ParseOrientation(c.Page.Orientation); err != nil {
		return fmt.Errorf("%w: page.orientation %q (must be portrait or landscape)", ErrInvalidValue, c.Page.Orientation)
	}
	if c.Page.BaseURL != "" && !fileutil.IsURL(c.Page.BaseURL) {
		return fmt.Errorf("%w: page.baseURL %q (must be an http, https or file URL)", ErrInvalidValue, c.Page.BaseURL)
	}
	margins := []struct {
		name  string
		value *float64
	}{
		{"page.margin", c.Page.Margin},
		{"page.marginTop", c.Page.MarginTop},
		{"page.marginLeft", c.Page.MarginLeft},
		{"page.marginBottom", c.Page.MarginBottom},
		{"page.marginRight", c.Page.MarginRight},
	}
	for _, m := range margins {
		if m.value != nil && *m.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %.2f", ErrInvalidValue, m.name, *m.value)
		}
	}

	if c.Render.Workers < 0 || c.Render.PoolSize < 0 || c.Render.Retries < 0 || c.Render.RateBurst < 0 {
		return fmt.Errorf("%w: render counts must not be negative", ErrInvalidValue)
	}
	if c.Render.PoolSize > html2pdf.MaxPoolSize {
		return fmt.Errorf("%w: render.poolSize %d exceeds %d", ErrInvalidValue, c.Render.PoolSize, html2pdf.MaxPoolSize)
	}
	if c.Render.RateLimit < 0 {
		return fmt.Errorf("%w: render.rateLimit must not be negative", ErrInvalidValue)
	}
	if _, err := parseDuration("render.timeout", c.Render.Timeout); err != nil {
		return err
	}
	if _, err := parseDuration("render.retryDelay", c.Render.RetryDelay); err != nil {
		return err
	}

	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: log.level %q", ErrInvalidValue, c.Log.Level)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", ErrInvalidValue, c.Log.Format)
	}

	return nil
}

// TimeoutDuration returns render.timeout, or zero when unset.
func (r RenderConfig) TimeoutDuration() time.Duration {
	d, _ := parseDuration("render.timeout", r.Timeout)
	return d
}

// RetryDelayDuration returns render.retryDelay, or zero when unset.
func (r RenderConfig) RetryDelayDuration() time.Duration {
	d, _ := parseDuration("render.retryDelay", r.RetryDelay)
	return d
}

// CreateDirs reports render.createDirectories, true when unset.
func (r RenderConfig) CreateDirs() bool {
	return r.CreateDirectories == nil || *r.CreateDirectories
}

// parseDuration parses a positive Go duration. Empty means zero.
func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, field, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidValue, field, d)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration with every field unset, so that
// library defaults apply.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := unmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-html2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
