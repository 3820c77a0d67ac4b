package html2pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/pipeline"
	"github.com/alnah/go-html2pdf/internal/process"
)

// Engine turns one HTML document into PDF bytes.
// An Engine is not safe for concurrent use; the Pool hands each one to a
// single worker at a time.
type Engine interface {
	Render(ctx context.Context, html string, cfg *Configuration) ([]byte, error)
	Close() error
}

// EngineFactory creates the engines owned by a Pool.
type EngineFactory func() Engine

// RodEngineFactory returns a factory for headless Chrome engines.
// timeout bounds page loads when the render context has no deadline.
func RodEngineFactory(timeout time.Duration) EngineFactory {
	return func() Engine { return NewRodEngine(timeout) }
}

// fileRenderer renders a local HTML file to PDF, allowing tests to run
// without a browser.
type fileRenderer interface {
	RenderFile(ctx context.Context, path string, opts *proto.PagePrintToPDF) ([]byte, error)
	Close() error
}

// Compile-time interface checks
var (
	_ Engine       = (*rodEngine)(nil)
	_ fileRenderer = (*rodRenderer)(nil)
)

// rodEngine renders through headless Chrome driven by go-rod.
type rodEngine struct {
	renderer fileRenderer
}

// NewRodEngine creates a Chrome-backed engine. The browser starts on the
// first Render, so creating engines is cheap.
func NewRodEngine(timeout time.Duration) Engine {
	return &rodEngine{renderer: newRodRenderer(timeout)}
}

// Render writes html to a temp file and prints it with the page geometry of cfg.
// A configured base URL is injected as <base href> first.
func (e *rodEngine) Render(ctx context.Context, html string, cfg *Configuration) ([]byte, error) {
	if cfg == nil {
		def := A4()
		cfg = &def
	}

	html = pipeline.InjectBase(html, cfg.BaseURL)

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return e.renderer.RenderFile(ctx, tmpPath, buildPDFOptions(cfg))
}

// Close shuts the browser down.
func (e *rodEngine) Close() error {
	return e.renderer.Close()
}

// buildPDFOptions maps a Configuration to Chrome's print parameters.
// Chrome expects portrait paper dimensions and swaps them itself for landscape.
func buildPDFOptions(cfg *Configuration) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		Landscape:       cfg.Orientation == Landscape,
		PrintBackground: true,
		PaperWidth:      floatPtr(cfg.Size.Width),
		PaperHeight:     floatPtr(cfg.Size.Height),
		MarginTop:       floatPtr(cfg.Margins.Top),
		MarginBottom:    floatPtr(cfg.Margins.Bottom),
		MarginLeft:      floatPtr(cfg.Margins.Left),
		MarginRight:     floatPtr(cfg.Margins.Right),
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// rodRenderer owns one Chrome process.
type rodRenderer struct {
	timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &rodRenderer{timeout: timeout}
}

// newLauncher configures Chrome from the environment.
//   - ROD_BROWSER_BIN selects the binary (Docker images ship their own)
//   - ROD_NO_SANDBOX=1 or CI=true disables the sandbox
func newLauncher() *launcher.Launcher {
	l := launcher.New()

	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || bin != "" {
		l = l.NoSandbox(true)
	}
	return l
}

// ensureBrowser lazily launches and connects to Chrome.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := newLauncher()
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %w", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %w", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	return browser, nil
}

// RenderFile opens a local HTML file in a new tab and prints it.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) RenderFile(ctx context.Context, path string, opts *proto.PagePrintToPDF) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	// Bind the page to ctx so an abandoned render stops talking to Chrome.
	// The deferred Close keeps the unbound page and still runs after ctx ends.
	bound := page.Context(ctx)

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := bound.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := bound.PDF(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %w", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// Close closes the browser and kills its process tree so no renderer
// children outlive the engine.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}

	err := r.browser.Close()
	killBrowserTree(r.launcher)

	r.browser = nil
	r.launcher = nil
	return err
}

func killBrowserTree(l *launcher.Launcher) {
	if l == nil {
		return
	}
	process.KillTree(l.PID())
	l.Kill()
}
