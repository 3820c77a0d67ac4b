package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
	noColor   bool
}

// renderFlags holds scheduling flags.
type renderFlags struct {
	workers    int
	poolSize   int
	timeout    string
	retries    int
	retryDelay string
	noMkdir    bool
	verify     bool
	rate       float64
	rateBurst  int
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size         string
	orientation  string
	margin       float64
	marginTop    float64
	marginLeft   float64
	marginBottom float64
	marginRight  float64
	baseURL      string
}

// displayFlags holds terminal output flags.
type displayFlags struct {
	progress bool
	summary  bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	output  string
	css     string
	render  renderFlags
	page    pageFlags
	display displayFlags

	// set records the flags given on the command line, so that explicit
	// zero values still override the config file.
	set map[string]bool
}

// isSet reports whether the named flag was given on the command line.
func (f *convertFlags) isSet(name string) bool {
	return f.set[name]
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and debug logs")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// addRenderFlags adds scheduling flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = pool size)")
	fs.IntVar(&f.poolSize, "pool-size", 0, "browser pool size (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.retries, "retries", 0, "attempts to acquire a browser (0 = default)")
	fs.StringVar(&f.retryDelay, "retry-delay", "", "wait per acquire attempt (e.g., 1s)")
	fs.BoolVar(&f.noMkdir, "no-mkdir", false, "do not create missing output directories")
	fs.BoolVar(&f.verify, "verify", false, "validate every PDF and count its pages")
	fs.Float64Var(&f.rate, "rate", 0, "max documents started per second (0 = unlimited)")
	fs.IntVar(&f.rateBurst, "rate-burst", 0, "documents allowed at once above --rate")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches, all sides")
	fs.Float64Var(&f.marginTop, "margin-top", 0, "top margin in inches")
	fs.Float64Var(&f.marginLeft, "margin-left", 0, "left margin in inches")
	fs.Float64Var(&f.marginBottom, "margin-bottom", 0, "bottom margin in inches")
	fs.Float64Var(&f.marginRight, "margin-right", 0, "right margin in inches")
	fs.StringVar(&f.baseURL, "base-url", "", "base URL for relative references")
}

// addDisplayFlags adds terminal output flags to a FlagSet.
func addDisplayFlags(fs *flag.FlagSet, f *displayFlags) {
	fs.BoolVar(&f.progress, "progress", false, "show a progress bar")
	fs.BoolVar(&f.summary, "summary", false, "print a summary table")
}

// newConvertFlagSet builds the convert FlagSet bound to f.
func newConvertFlagSet(f *convertFlags, usage io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(usage)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file, directory, or gs://bucket/prefix")
	fs.StringVar(&f.css, "css", "", "stylesheet injected into every document")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addPageFlags(fs, &f.page)
	addDisplayFlags(fs, &f.display)

	fs.Usage = func() { printConvertUsage(usage) }

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{set: make(map[string]bool)}
	fs := newConvertFlagSet(f, usage)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	return f, fs.Args(), nil
}
