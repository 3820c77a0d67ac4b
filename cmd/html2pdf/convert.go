package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// runConvert executes the convert command.
// Sources merge as: CLI flags > HTML2PDF_* env vars > config file > defaults.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positionalArgs, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	// Validate worker count early
	if err := validateWorkers(flags.render.workers); err != nil {
		return err
	}

	warnUnknownEnvVars(env.Stderr)
	envCfg, err := loadEnvConfig()
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validateWorkers(cfg.Render.Workers); err != nil {
		return err
	}

	pageCfg, err := buildConfiguration(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, env.Stderr)
	logEffectiveConfig(logger, cfg)

	// Resolve input and output
	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	// Discover files to convert
	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no HTML or Markdown files found in %s", ErrNoInput, inputPath)
	}

	css, err := readCSS(cfg.Input.CSS)
	if err != nil {
		return err
	}

	conv, err := html2pdf.NewConverter(buildOptions(cfg, pageCfg, logger, env)...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conv.Close(); cerr != nil {
			logger.WithError(cerr).Warn("closing converter")
		}
	}()

	logger.WithField("pool", conv.Pool().Capacity()).
		WithField("workers", conv.Workers()).
		WithField("files", len(files)).
		Debug("starting conversion")

	prep := newPreparer(css, pageCfg.BaseURL == "")
	report := newReporter(env, flags, files)

	start := env.Now()
	stream := conv.RenderBatchStreaming(ctx, prep.documents(ctx, files))
	for c := range stream.Completions() {
		report.completed(c)
	}
	summary := stream.Summary()

	err = mergeFailures(summary, stream.Err(), prep.skipped())
	report.finish(summary, err, env.Now().Sub(start), conv.Workers())

	return err
}

// loadConfig loads the config named by --config, else by HTML2PDF_CONFIG.
// Neither set means defaults.
func loadConfig(flagName, envName string) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(args))
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// readCSS reads the stylesheet injected into every document.
func readCSS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadCSS, err)
	}
	return string(content), nil
}

// logEffectiveConfig dumps the merged configuration at debug level.
func logEffectiveConfig(logger *logrus.Logger, cfg *config.Config) {
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		logger.WithError(err).Debug("encoding effective config")
		return
	}
	logger.Debugf("effective config:\n%s", data)
}
