package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/pipeline"
)

// Sentinel errors for batch operations.
var (
	ErrNoInput   = errors.New("no input specified")
	ErrReadInput = errors.New("failed to read input file")
	ErrReadCSS   = errors.New("failed to read CSS file")
)

// preparer turns discovered files into documents. Markdown goes through
// goldmark, the stylesheet is injected, and relative references are made
// absolute unless a base URL resolves them.
type preparer struct {
	css          string
	resolveLocal bool
	md           *pipeline.MarkdownConverter

	mu       sync.Mutex
	failures []html2pdf.DocumentError
}

func newPreparer(css string, resolveLocal bool) *preparer {
	return &preparer{
		css:          css,
		resolveLocal: resolveLocal,
		md:           pipeline.NewMarkdownConverter(),
	}
}

// documents lazily prepares files in order. A file that cannot be prepared
// is recorded and skipped; the batch goes on with the rest. Cancellation is
// left to the batch, which stops pulling.
func (p *preparer) documents(ctx context.Context, files []FileToConvert) iter.Seq[html2pdf.Document] {
	return func(yield func(html2pdf.Document) bool) {
		for _, f := range files {
			doc, err := p.prepare(ctx, f)
			if err != nil {
				p.fail(f.OutputPath, err)
				continue
			}
			if !yield(doc) {
				return
			}
		}
	}
}

// prepare reads and transforms one input file.
func (p *preparer) prepare(ctx context.Context, f FileToConvert) (html2pdf.Document, error) {
	data, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered input path
	if err != nil {
		return html2pdf.Document{}, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	content := string(data)

	if isMarkdown(f.InputPath) {
		title := strings.TrimSuffix(filepath.Base(f.InputPath), filepath.Ext(f.InputPath))
		content, err = p.md.ToHTML(ctx, title, content)
		if err != nil {
			return html2pdf.Document{}, err
		}
	}

	if p.css != "" {
		content = pipeline.InjectCSS(content, p.css)
	}

	if p.resolveLocal {
		content, err = pipeline.ResolveLocalReferences(content, filepath.Dir(f.InputPath))
		if err != nil {
			return html2pdf.Document{}, fmt.Errorf("resolving references in %s: %w", f.InputPath, err)
		}
	}

	return html2pdf.Document{Output: f.OutputPath, HTML: content}, nil
}

func (p *preparer) fail(output string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, html2pdf.DocumentError{Output: output, Err: err})
}

// skipped returns the files that never reached the renderer.
func (p *preparer) skipped() []html2pdf.DocumentError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// mergeFailures folds preparation failures into the batch result, so that
// a batch with unreadable inputs fails like one with unrenderable ones.
func mergeFailures(summary html2pdf.BatchSummary, batchErr error, skipped []html2pdf.DocumentError) error {
	if len(skipped) == 0 {
		return batchErr
	}

	var be *html2pdf.BatchError
	if errors.As(batchErr, &be) {
		return &html2pdf.BatchError{
			Succeeded: be.Succeeded,
			Failures:  append(append([]html2pdf.DocumentError{}, skipped...), be.Failures...),
			Cause:     be.Cause,
		}
	}
	if batchErr != nil {
		return errors.Join(&html2pdf.BatchError{Succeeded: summary.Succeeded, Failures: skipped}, batchErr)
	}
	return &html2pdf.BatchError{Succeeded: summary.Succeeded, Failures: skipped}
}

// reporter prints per-document results, the progress bar and the summary.
type reporter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool
	summary bool

	bar    *progressbar.ProgressBar
	ok     *color.Color
	failed *color.Color
	bold   *color.Color

	inputs map[string]string // output path -> input path
	total  int
}

func newReporter(env *Environment, flags *convertFlags, files []FileToConvert) *reporter {
	r := &reporter{
		stdout:  env.Stdout,
		stderr:  env.Stderr,
		quiet:   flags.common.quiet,
		verbose: flags.common.verbose,
		summary: flags.display.summary,
		ok:      color.New(color.FgGreen),
		failed:  color.New(color.FgRed),
		bold:    color.New(color.Bold),
		inputs:  make(map[string]string, len(files)),
		total:   len(files),
	}
	if flags.common.noColor {
		r.ok.DisableColor()
		r.failed.DisableColor()
		r.bold.DisableColor()
	}

	for _, f := range files {
		r.inputs[f.OutputPath] = f.InputPath
	}

	if flags.display.progress && !flags.common.quiet {
		r.bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Rendering"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("doc"),
			progressbar.OptionSetWriter(env.Stderr),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionEnableColorCodes(!flags.common.noColor),
		)
	}

	return r
}

// completed reports one document written successfully.
func (r *reporter) completed(c html2pdf.Completion) {
	if r.bar != nil {
		_ = r.bar.Add(1)
		return
	}
	if r.quiet {
		return
	}

	if r.verbose {
		detail := c.Duration.Round(time.Millisecond).String()
		if c.Pages > 0 {
			detail += ", " + strconv.Itoa(c.Pages) + " pages"
		}
		_, _ = r.ok.Fprintf(r.stdout, "%s -> %s (%s)\n", r.inputFor(c.Output), c.Output, detail)
		return
	}
	_, _ = r.ok.Fprintf(r.stdout, "Created %s\n", c.Output)
}

// finish closes the bar, prints failures and the totals.
func (r *reporter) finish(summary html2pdf.BatchSummary, err error, elapsed time.Duration, workers int) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}

	var be *html2pdf.BatchError
	var failures []html2pdf.DocumentError
	if errors.As(err, &be) {
		failures = be.Failures
	}
	for _, f := range failures {
		_, _ = r.failed.Fprintf(r.stderr, "FAILED %s: %v\n", r.inputFor(f.Output), f.Err)
	}

	if r.quiet {
		return
	}

	if r.summary {
		r.printSummary(summary.Succeeded, len(failures), elapsed, workers)
		return
	}

	if r.total > 1 {
		_, _ = r.bold.Fprintf(r.stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, len(failures))
	}
}

// printSummary renders the batch totals as a table.
func (r *reporter) printSummary(succeeded, failed int, elapsed time.Duration, workers int) {
	notStarted := max(r.total-succeeded-failed, 0)

	table := tablewriter.NewWriter(r.stdout)
	table.Header("Documents", "Succeeded", "Failed", "Not started", "Workers", "Elapsed")
	_ = table.Append(
		strconv.Itoa(r.total),
		strconv.Itoa(succeeded),
		strconv.Itoa(failed),
		strconv.Itoa(notStarted),
		strconv.Itoa(workers),
		elapsed.Round(time.Millisecond).String(),
	)
	_ = table.Render()
}

// inputFor maps an output path back to its source for messages.
func (r *reporter) inputFor(output string) string {
	if in, ok := r.inputs[output]; ok {
		return in
	}
	return output
}
