package main

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// mergeFlags merges CLI flags into config. CLI values override config
// values, including explicit zeros such as --margin 0.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	setString := func(name string, dst *string, v string) {
		if flags.isSet(name) {
			*dst = v
		}
	}
	setInt := func(name string, dst *int, v int) {
		if flags.isSet(name) {
			*dst = v
		}
	}
	setFloat := func(name string, dst **float64, v float64) {
		if flags.isSet(name) {
			*dst = &v
		}
	}

	// I/O flags
	setString("css", &cfg.Input.CSS, flags.css)

	// Render flags
	setInt("workers", &cfg.Render.Workers, flags.render.workers)
	setInt("pool-size", &cfg.Render.PoolSize, flags.render.poolSize)
	setString("timeout", &cfg.Render.Timeout, flags.render.timeout)
	setInt("retries", &cfg.Render.Retries, flags.render.retries)
	setString("retry-delay", &cfg.Render.RetryDelay, flags.render.retryDelay)
	if flags.render.noMkdir {
		disabled := false
		cfg.Render.CreateDirectories = &disabled
	}
	if flags.render.verify {
		cfg.Render.Verify = true
	}
	if flags.isSet("rate") {
		cfg.Render.RateLimit = flags.render.rate
	}
	setInt("rate-burst", &cfg.Render.RateBurst, flags.render.rateBurst)

	// Page flags
	setString("page-size", &cfg.Page.Size, flags.page.size)
	setString("orientation", &cfg.Page.Orientation, flags.page.orientation)
	setFloat("margin", &cfg.Page.Margin, flags.page.margin)
	setFloat("margin-top", &cfg.Page.MarginTop, flags.page.marginTop)
	setFloat("margin-left", &cfg.Page.MarginLeft, flags.page.marginLeft)
	setFloat("margin-bottom", &cfg.Page.MarginBottom, flags.page.marginBottom)
	setFloat("margin-right", &cfg.Page.MarginRight, flags.page.marginRight)
	setString("base-url", &cfg.Page.BaseURL, flags.page.baseURL)

	// Log flags: --verbose and --quiet win over any configured level.
	setString("log-format", &cfg.Log.Format, flags.common.logFormat)
	switch {
	case flags.common.verbose:
		cfg.Log.Level = logrus.DebugLevel.String()
	case flags.common.quiet:
		cfg.Log.Level = logrus.ErrorLevel.String()
	}
}

// buildConfiguration turns the page section of cfg into a validated
// html2pdf.Configuration. Unset fields keep the A4 defaults; per-side
// margins override the uniform one.
func buildConfiguration(cfg *config.Config) (html2pdf.Configuration, error) {
	pc := html2pdf.A4()

	if cfg.Page.Size != "" {
		size, err := html2pdf.PageSizeByName(cfg.Page.Size)
		if err != nil {
			return html2pdf.Configuration{}, err
		}
		pc.Size = size
	}

	orientation, err := html2pdf.ParseOrientation(cfg.Page.Orientation)
	if err != nil {
		return html2pdf.Configuration{}, err
	}
	pc.Orientation = orientation

	if cfg.Page.Margin != nil {
		pc.Margins = html2pdf.UniformMargins(*cfg.Page.Margin)
	}
	sides := []struct {
		value *float64
		dst   *float64
	}{
		{cfg.Page.MarginTop, &pc.Margins.Top},
		{cfg.Page.MarginLeft, &pc.Margins.Left},
		{cfg.Page.MarginBottom, &pc.Margins.Bottom},
		{cfg.Page.MarginRight, &pc.Margins.Right},
	}
	for _, s := range sides {
		if s.value != nil {
			*s.dst = *s.value
		}
	}

	pc.BaseURL = cfg.Page.BaseURL

	if err := pc.Validate(); err != nil {
		return html2pdf.Configuration{}, err
	}
	return pc, nil
}

// buildOptions translates the merged config into converter options.
func buildOptions(cfg *config.Config, page html2pdf.Configuration, logger logrus.FieldLogger, env *Environment) []html2pdf.Option {
	opts := []html2pdf.Option{
		html2pdf.WithConfiguration(page),
		html2pdf.WithWorkers(cfg.Render.Workers),
		html2pdf.WithPoolSize(cfg.Render.PoolSize),
		html2pdf.WithAcquireRetry(cfg.Render.Retries, cfg.Render.RetryDelayDuration()),
		html2pdf.WithCreateDirectories(cfg.Render.CreateDirs()),
		html2pdf.WithVerify(cfg.Render.Verify),
		html2pdf.WithRateLimit(cfg.Render.RateLimit, cfg.Render.RateBurst),
		html2pdf.WithLogger(logger),
	}

	if timeout := cfg.Render.TimeoutDuration(); timeout > 0 {
		opts = append(opts, html2pdf.WithTimeout(timeout))
	}
	if env.EngineFactory != nil {
		opts = append(opts, html2pdf.WithEngineFactory(env.EngineFactory))
	}
	if env.Sink != nil {
		opts = append(opts, html2pdf.WithSink(env.Sink))
	}

	return opts
}

// newLogger builds the diagnostic logger on w from the log section.
// The level defaults to error: failed documents are already reported on
// the result lines.
func newLogger(cfg *config.Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.ErrorLevel)

	if cfg.Log.Level != "" {
		if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
			logger.SetLevel(level)
		}
	}

	if strings.EqualFold(cfg.Log.Format, config.LogFormatJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	return logger
}
