package html2pdf

// Notes:
// - rodEngine is tested with a mock fileRenderer: the temp-file handoff,
//   base URL injection and print options are checked without Chrome.
// - rodRenderer itself is covered by integration tests.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// mockRenderer records what rodEngine hands to the browser.
type mockRenderer struct {
	path    string
	content string
	opts    *proto.PagePrintToPDF
	result  []byte
	err     error
	closed  bool
}

func (m *mockRenderer) RenderFile(_ context.Context, path string, opts *proto.PagePrintToPDF) ([]byte, error) {
	m.path = path
	m.opts = opts
	if data, err := os.ReadFile(path); err == nil {
		m.content = string(data)
	}
	return m.result, m.err
}

func (m *mockRenderer) Close() error {
	m.closed = true
	return nil
}

// ---------------------------------------------------------------------------
// TestBuildPDFOptions - Geometry Mapping
// ---------------------------------------------------------------------------

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cfg           Configuration
		wantLandscape bool
		wantWidth     float64
		wantHeight    float64
	}{
		{"A4 portrait", A4(), false, 8.27, 11.69},
		{"letter landscape", Configuration{Size: PageLetter, Orientation: Landscape, Margins: UniformMargins(0.5)}, true, 8.5, 11},
		{"legal portrait", Configuration{Size: PageLegal, Margins: UniformMargins(0.5)}, false, 8.5, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := buildPDFOptions(&tt.cfg)
			if opts.Landscape != tt.wantLandscape {
				t.Errorf("Landscape = %v, want %v", opts.Landscape, tt.wantLandscape)
			}
			if *opts.PaperWidth != tt.wantWidth || *opts.PaperHeight != tt.wantHeight {
				t.Errorf("paper = %vx%v, want %vx%v", *opts.PaperWidth, *opts.PaperHeight, tt.wantWidth, tt.wantHeight)
			}
			if !opts.PrintBackground {
				t.Error("PrintBackground should be enabled")
			}
		})
	}
}

func TestBuildPDFOptions_Margins(t *testing.T) {
	t.Parallel()

	cfg := A4()
	cfg.Margins = Margins{Top: 1, Right: 0.25, Bottom: 0.75, Left: 0}

	opts := buildPDFOptions(&cfg)
	got := [4]float64{*opts.MarginTop, *opts.MarginRight, *opts.MarginBottom, *opts.MarginLeft}
	if want := [4]float64{1, 0.25, 0.75, 0}; got != want {
		t.Errorf("margins = %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestRodEngine - Browser Handoff
// ---------------------------------------------------------------------------

func TestRodEngine_Render(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{result: minimalPDF(1)}
	e := &rodEngine{renderer: mock}
	cfg := A4()

	pdf, err := e.Render(context.Background(), "<html><body>hello</body></html>", &cfg)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(pdf) == 0 {
		t.Error("Render() returned no bytes")
	}

	if !strings.HasPrefix(filepath.Base(mock.path), "html2pdf-") || filepath.Ext(mock.path) != ".html" {
		t.Errorf("temp file = %q, want html2pdf-*.html", mock.path)
	}
	if mock.content != "<html><body>hello</body></html>" {
		t.Errorf("content = %q", mock.content)
	}
	if _, err := os.Stat(mock.path); !os.IsNotExist(err) {
		t.Error("temp file not removed after render")
	}
}

func TestRodEngine_BaseURL(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{result: minimalPDF(1)}
	e := &rodEngine{renderer: mock}
	cfg := A4()
	cfg.BaseURL = "https://example.com/docs/"

	if _, err := e.Render(context.Background(), "<html><head></head><body><img src=\"a.png\"></body></html>", &cfg); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mock.content, `<head><base href="https://example.com/docs/">`) {
		t.Errorf("base element not injected: %q", mock.content)
	}
}

func TestRodEngine_NilConfiguration(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{result: minimalPDF(1)}
	e := &rodEngine{renderer: mock}

	if _, err := e.Render(context.Background(), "<p>x</p>", nil); err != nil {
		t.Fatal(err)
	}
	if *mock.opts.PaperWidth != PageA4.Width {
		t.Errorf("PaperWidth = %v, want A4 default", *mock.opts.PaperWidth)
	}
}

func TestRodEngine_Errors(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{err: ErrPageLoad}
	e := &rodEngine{renderer: mock}

	_, err := e.Render(context.Background(), "<p>x</p>", nil)
	if !errors.Is(err, ErrPageLoad) {
		t.Errorf("Render() error = %v, want ErrPageLoad", err)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if !mock.closed {
		t.Error("Close() did not close the renderer")
	}
}

func TestRodRenderer_CloseWithoutBrowser(t *testing.T) {
	t.Parallel()

	r := newRodRenderer(time.Second)
	if err := r.Close(); err != nil {
		t.Errorf("Close() on unused renderer error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRodRenderer_CanceledContext(t *testing.T) {
	t.Parallel()

	r := newRodRenderer(time.Second)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A canceled context returns before any browser launch.
	if _, err := r.RenderFile(ctx, "/nonexistent.html", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("RenderFile() error = %v, want context.Canceled", err)
	}
}

func TestNewRodRenderer_DefaultTimeout(t *testing.T) {
	t.Parallel()

	if r := newRodRenderer(0); r.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, defaultTimeout)
	}
}
