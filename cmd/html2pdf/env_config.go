package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-html2pdf/internal/config"
)

const envPrefix = "HTML2PDF_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // HTML2PDF_CONFIG: config file name or path
	Timeout    string // HTML2PDF_TIMEOUT: per-document timeout
	Workers    int    // HTML2PDF_WORKERS: parallel workers

	// Tier 2 - I/O
	InputDir  string // HTML2PDF_INPUT_DIR: default input directory
	OutputDir string // HTML2PDF_OUTPUT_DIR: default output directory or gs:// prefix
	CSS       string // HTML2PDF_CSS: stylesheet path

	// Tier 3 - Extended
	PageSize    string // HTML2PDF_PAGE_SIZE: a4, letter, legal
	Orientation string // HTML2PDF_ORIENTATION: portrait, landscape
	BaseURL     string // HTML2PDF_BASE_URL: base URL for relative references
	PoolSize    int    // HTML2PDF_POOL_SIZE: browser pool size
	LogLevel    string // HTML2PDF_LOG_LEVEL: logrus level name
	LogFormat   string // HTML2PDF_LOG_FORMAT: text, json
}

// knownEnvVars lists valid HTML2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"HTML2PDF_CONFIG":  true,
	"HTML2PDF_TIMEOUT": true,
	"HTML2PDF_WORKERS": true,
	// Tier 2 - I/O
	"HTML2PDF_INPUT_DIR":  true,
	"HTML2PDF_OUTPUT_DIR": true,
	"HTML2PDF_CSS":        true,
	// Tier 3 - Extended
	"HTML2PDF_PAGE_SIZE":   true,
	"HTML2PDF_ORIENTATION": true,
	"HTML2PDF_BASE_URL":    true,
	"HTML2PDF_POOL_SIZE":   true,
	"HTML2PDF_LOG_LEVEL":   true,
	"HTML2PDF_LOG_FORMAT":  true,
	// Read by doctor
	"HTML2PDF_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized HTML2PDF_* values, or an error
// wrapping config.ErrInvalidValue for malformed numbers.
func loadEnvConfig() (*envConfig, error) {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("HTML2PDF_CONFIG"),
		Timeout:    os.Getenv("HTML2PDF_TIMEOUT"),
		// Tier 2
		InputDir:  os.Getenv("HTML2PDF_INPUT_DIR"),
		OutputDir: os.Getenv("HTML2PDF_OUTPUT_DIR"),
		CSS:       os.Getenv("HTML2PDF_CSS"),
		// Tier 3
		PageSize:    os.Getenv("HTML2PDF_PAGE_SIZE"),
		Orientation: os.Getenv("HTML2PDF_ORIENTATION"),
		BaseURL:     os.Getenv("HTML2PDF_BASE_URL"),
		LogLevel:    os.Getenv("HTML2PDF_LOG_LEVEL"),
		LogFormat:   os.Getenv("HTML2PDF_LOG_FORMAT"),
	}

	var err error
	if cfg.Workers, err = envInt("HTML2PDF_WORKERS"); err != nil {
		return nil, err
	}
	if cfg.PoolSize, err = envInt("HTML2PDF_POOL_SIZE"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envInt parses a non-negative integer variable. Unset means zero.
func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q (must be a non-negative integer)", config.ErrInvalidValue, name, v)
	}
	return n, nil
}

// warnUnknownEnvVars logs warnings for unrecognized HTML2PDF_* variables.
// Helps catch typos like HTML2PDF_WORKER instead of HTML2PDF_WORKERS.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A set variable replaces the config file value. CLI flags are applied
// later via mergeFlags, so the order is:
// CLI flags > env vars > config file > defaults
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}

	// Tier 1
	setString(&cfg.Render.Timeout, env.Timeout)
	setInt(&cfg.Render.Workers, env.Workers)

	// Tier 2
	setString(&cfg.Input.DefaultDir, env.InputDir)
	setString(&cfg.Output.DefaultDir, env.OutputDir)
	setString(&cfg.Input.CSS, env.CSS)

	// Tier 3
	setString(&cfg.Page.Size, env.PageSize)
	setString(&cfg.Page.Orientation, env.Orientation)
	setString(&cfg.Page.BaseURL, env.BaseURL)
	setInt(&cfg.Render.PoolSize, env.PoolSize)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)
}
